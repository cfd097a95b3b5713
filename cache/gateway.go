// Package cache generates accessors at most once per registry fingerprint
// and serves later requests from the published workspace slot.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"goa.design/accessors/cache/index"
	"goa.design/accessors/cache/index/memory"
	"goa.design/accessors/cache/lock"
	"goa.design/accessors/codegen"
	"goa.design/accessors/codegen/kotlin"
	"goa.design/accessors/registry"
	"goa.design/accessors/telemetry"
)

const (
	// SourcesDir is the slot subdirectory holding generated sources.
	SourcesDir = "sources"
	// ClassesDir is the slot subdirectory holding generated class files.
	ClassesDir = "classes"

	defaultMemoSize = 64
)

// ErrNotPublished is returned when a generation completed but its slot is
// not visible in the workspace.
var ErrNotPublished = errors.New("generation not published")

type (
	// Fingerprinter hashes the files of a scope. Equal hashes mean equal
	// generation inputs.
	Fingerprinter interface {
		Fingerprint(ctx context.Context, scope []string) (string, error)
	}

	// Workspace stores published slots keyed by identity.
	Workspace interface {
		// Load returns the slot of identity and whether it is published.
		Load(ctx context.Context, identity string) (string, bool, error)
		// Publish runs fill on a staging directory and atomically makes it
		// the slot of identity.
		Publish(ctx context.Context, identity string, fill func(dir string) error) (string, error)
	}

	// Generator produces accessor outputs.
	Generator interface {
		// Generate returns the outputs of work, generating them on a miss.
		Generate(ctx context.Context, work Work) (*Result, error)
		// ClassPath generates both accessor kinds of snapshot.
		ClassPath(ctx context.Context, snapshot *registry.Snapshot) (*ClassPath, error)
	}

	// Result locates the outputs of one generation.
	Result struct {
		// Identity is the workspace key, see Identity. It is empty when
		// Empty is set.
		Identity string `yaml:"identity,omitempty"`
		// SourcesDir is the root of the generated source tree.
		SourcesDir string `yaml:"sources"`
		// ClassesDir is the root of the generated class files.
		ClassesDir string `yaml:"classes"`
		// Hit is true when the outputs were produced by an earlier call.
		Hit bool `yaml:"hit"`
		// Empty is true when there was nothing to generate, such as a
		// registry without catalogs. No directory is set then.
		Empty bool `yaml:"empty,omitempty"`
	}

	// ClassPath combines the outputs of both accessor kinds, catalogs first.
	ClassPath struct {
		Bin []string `yaml:"bin"`
		Src []string `yaml:"src"`
	}

	// Config carries the gateway collaborators. Only Workspace is
	// required.
	Config struct {
		// Workspace publishes and loads generation slots.
		Workspace Workspace
		// Fingerprinter defaults to registry.ScopeHasher.
		Fingerprinter Fingerprinter
		// Locker defaults to an in-process keyed lock.
		Locker lock.Locker
		// Index defaults to an in-memory store.
		Index index.Store
		// MemoSize bounds the in-process result memo. Defaults to 64.
		MemoSize int
		// Format selects the visibility of generated sources. It is part
		// of the cache identity.
		Format  kotlin.Format
		Logger  telemetry.Logger
		Metrics telemetry.Metrics
		Tracer  telemetry.Tracer
	}

	// Gateway is the Generator backed by a workspace.
	Gateway struct {
		workspace     Workspace
		fingerprinter Fingerprinter
		locker        lock.Locker
		index         index.Store
		memo          *lru.Cache[string, *Result]
		format        kotlin.Format
		logger        telemetry.Logger
		metrics       telemetry.Metrics
		tracer        telemetry.Tracer
		now           func() time.Time
	}
)

var _ Generator = (*Gateway)(nil)

// New returns a gateway using cfg, with defaults for unset collaborators.
func New(cfg Config) (*Gateway, error) {
	if cfg.Workspace == nil {
		return nil, errors.New("cache: workspace is required")
	}
	if cfg.Fingerprinter == nil {
		cfg.Fingerprinter = registry.NewScopeHasher()
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewKeyed()
	}
	if cfg.Index == nil {
		cfg.Index = memory.New()
	}
	if cfg.MemoSize <= 0 {
		cfg.MemoSize = defaultMemoSize
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NewNoopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewNoopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.NewNoopTracer()
	}
	memo, err := lru.New[string, *Result](cfg.MemoSize)
	if err != nil {
		return nil, fmt.Errorf("cache: create memo: %w", err)
	}
	return &Gateway{
		workspace:     cfg.Workspace,
		fingerprinter: cfg.Fingerprinter,
		locker:        cfg.Locker,
		index:         cfg.Index,
		memo:          memo,
		format:        cfg.Format,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		tracer:        cfg.Tracer,
		now:           time.Now,
	}, nil
}

// Generate returns the outputs of work. Outputs are generated and published
// only when no slot exists for the work identity. Any failure is returned
// and leaves the workspace unchanged.
func (g *Gateway) Generate(ctx context.Context, work Work) (*Result, error) {
	kind := work.Kind()
	ctx, span := g.tracer.Start(ctx, "accessors.generate")
	defer span.End()

	res, err := g.generate(ctx, work)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error(ctx, "accessor generation failed", "kind", string(kind), "err", err)
		return nil, err
	}
	switch {
	case res.Empty:
		g.logger.Debug(ctx, "no accessors to generate", "kind", string(kind))
		return res, nil
	case res.Hit:
		g.metrics.IncCounter(telemetry.MetricCacheHit, 1, "kind", string(kind))
		g.logger.Debug(ctx, "accessor cache hit", "identity", res.Identity)
	default:
		g.metrics.IncCounter(telemetry.MetricCacheMiss, 1, "kind", string(kind))
		g.logger.Info(ctx, "accessors published", "identity", res.Identity, "classes", res.ClassesDir)
	}
	span.AddEvent("accessors.resolved", "identity", res.Identity, "hit", res.Hit)
	return res, nil
}

func (g *Gateway) generate(ctx context.Context, work Work) (*Result, error) {
	if work.empty() {
		return &Result{Empty: true}, nil
	}
	kind := work.Kind()
	fp, err := g.fingerprinter.Fingerprint(ctx, work.Scope())
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s scope: %w", kind, err)
	}
	identity := Identity(fp, kind, g.format)

	if res, ok := g.memoized(identity); ok {
		return res, nil
	}
	if res, ok, err := g.load(ctx, identity, true); err != nil || ok {
		return res, err
	}

	var ran atomic.Bool
	err = g.locker.WithLock(ctx, identity, func(ctx context.Context) error {
		if _, ok, err := g.workspace.Load(ctx, identity); err != nil || ok {
			return err
		}
		ran.Store(true)
		return g.publish(ctx, work, fp, identity)
	})
	if err != nil {
		return nil, err
	}

	res, ok, err := g.load(ctx, identity, !ran.Load())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPublished, identity)
	}
	return res, nil
}

func (g *Gateway) publish(ctx context.Context, work Work, fp, identity string) error {
	start := g.now()
	var count int
	slot, err := g.workspace.Publish(ctx, identity, func(dir string) error {
		n, err := work.emit(filepath.Join(dir, SourcesDir), filepath.Join(dir, ClassesDir), []codegen.Option{codegen.WithFormat(g.format)})
		count = n
		return err
	})
	if err != nil {
		return err
	}
	kind := string(work.Kind())
	g.metrics.RecordTimer(telemetry.MetricGenerateDuration, g.now().Sub(start), "kind", kind)
	g.metrics.RecordGauge(telemetry.MetricGeneratedAccessors, float64(count), "kind", kind)
	entry := &index.Entry{
		Identity:    identity,
		Kind:        kind,
		Fingerprint: fp,
		Accessors:   count,
		SourcesDir:  filepath.Join(slot, SourcesDir),
		ClassesDir:  filepath.Join(slot, ClassesDir),
		PublishedAt: g.now().UTC(),
	}
	if err := g.index.Save(ctx, entry); err != nil {
		return fmt.Errorf("record %s: %w", identity, err)
	}
	return nil
}

// load returns the published result of identity, memoizing it.
func (g *Gateway) load(ctx context.Context, identity string, hit bool) (*Result, bool, error) {
	slot, ok, err := g.workspace.Load(ctx, identity)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", identity, err)
	}
	if !ok {
		return nil, false, nil
	}
	res := &Result{
		Identity:   identity,
		SourcesDir: filepath.Join(slot, SourcesDir),
		ClassesDir: filepath.Join(slot, ClassesDir),
	}
	g.memo.Add(identity, res)
	out := *res
	out.Hit = hit
	return &out, true, nil
}

// memoized returns the memoized result of identity if its slot still
// exists.
func (g *Gateway) memoized(identity string) (*Result, bool) {
	res, ok := g.memo.Get(identity)
	if !ok {
		return nil, false
	}
	if _, err := os.Stat(res.ClassesDir); err != nil {
		g.memo.Remove(identity)
		return nil, false
	}
	out := *res
	out.Hit = true
	return &out, true
}

// ClassPath generates the catalog and plugin accessors of snapshot
// concurrently and returns their directories, catalogs first. Kinds with
// nothing to generate are left out.
func (g *Gateway) ClassPath(ctx context.Context, snapshot *registry.Snapshot) (*ClassPath, error) {
	works := []Work{VersionCatalogWork{Snapshot: snapshot}, PluginSpecsWork{Snapshot: snapshot}}
	results := make([]*Result, len(works))
	eg, ctx := errgroup.WithContext(ctx)
	for i, w := range works {
		eg.Go(func() error {
			res, err := g.Generate(ctx, w)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	cp := &ClassPath{}
	for _, res := range results {
		if res.Empty {
			continue
		}
		cp.Bin = append(cp.Bin, res.ClassesDir)
		cp.Src = append(cp.Src, res.SourcesDir)
	}
	return cp, nil
}

// Entries lists the recorded generations of kind, all of them when kind is
// empty.
func (g *Gateway) Entries(ctx context.Context, kind Kind) ([]*index.Entry, error) {
	return g.index.List(ctx, string(kind))
}
