package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"goa.design/pulse/rmap"

	"goa.design/accessors/cache"
	"goa.design/accessors/cache/index"
	mongostore "goa.design/accessors/cache/index/mongo"
	"goa.design/accessors/cache/index/replicated"
	"goa.design/accessors/cache/lock"
	"goa.design/accessors/cache/workspace"
	"goa.design/accessors/codegen/kotlin"
	"goa.design/accessors/registry"
	"goa.design/accessors/telemetry"
)

const (
	indexMapName    = "accessorgen"
	indexCollection = "entries"
)

// backends holds the optional shared collaborators and releases them.
type backends struct {
	redis   *redis.Client
	index   index.Store
	locker  lock.Locker
	closers []func()
}

// connect opens the backends configured in v. Without Redis or MongoDB the
// index and locker are left nil and the gateway defaults apply.
func connect(ctx context.Context, v *viper.Viper) (*backends, error) {
	b := &backends{}
	if url := v.GetString(keyRedisURL); url != "" {
		opts, err := redisOptions(url)
		if err != nil {
			return nil, err
		}
		b.redis = redis.NewClient(opts)
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		b.locker = lock.NewRedis(b.redis, lock.WithTTL(v.GetDuration(keyLockTTL)))
	}
	if uri := v.GetString(keyMongoURI); uri != "" {
		client, err := mongo.Connect(options.Client().ApplyURI(uri))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		if err := client.Ping(ctx, nil); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping mongodb: %w", err)
		}
		coll := client.Database(v.GetString(keyMongoDatabase)).Collection(indexCollection)
		b.index = mongostore.New(coll)
	} else if b.redis != nil {
		m, err := rmap.Join(ctx, indexMapName, b.redis)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("join index map: %w", err)
		}
		b.closers = append(b.closers, m.Close)
		b.index = replicated.New(m)
	}
	return b, nil
}

// Close releases the backends in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// newGateway returns a gateway over the configured workspace and backends.
func newGateway(v *viper.Viper, b *backends, format kotlin.Format) (*cache.Gateway, error) {
	ws, err := workspace.New(v.GetString(keyWorkspace))
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Config{
		Workspace:     ws,
		Fingerprinter: registry.NewScopeHasher(),
		Locker:        b.locker,
		Index:         b.index,
		MemoSize:      v.GetInt(keyMemoSize),
		Format:        format,
		Logger:        telemetry.NewClueLogger(),
		Metrics:       telemetry.NewClueMetrics(),
		Tracer:        telemetry.NewClueTracer(),
	})
}

// loadRegistry loads the registry file named in v.
func loadRegistry(v *viper.Viper) (*registry.Snapshot, error) {
	path := v.GetString(keyRegistry)
	if path == "" {
		return nil, errors.New("a registry file is required, see --registry")
	}
	return registry.Load(path)
}

// redisOptions accepts redis:// URLs and bare host:port addresses.
func redisOptions(url string) (*redis.Options, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: url}, nil
}
