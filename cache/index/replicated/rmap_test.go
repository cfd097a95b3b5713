package replicated

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"goa.design/pulse/rmap"

	"goa.design/accessors/cache/index"
	"goa.design/accessors/cache/index/indextest"
)

var (
	rdb       *redis.Client
	skipRedis bool
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	container := setupRedis(ctx)
	code := m.Run()
	if rdb != nil {
		_ = rdb.Close()
	}
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func setupRedis(ctx context.Context) testcontainers.Container {
	var (
		container testcontainers.Container
		err       error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("docker not available: %v", r)
			}
		}()
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
	}()
	if err != nil {
		fmt.Printf("Docker not available, replicated map tests will be skipped: %v\n", err)
		skipRedis = true
		return nil
	}
	host, herr := container.Host(ctx)
	port, perr := container.MappedPort(ctx, "6379")
	if herr != nil || perr != nil {
		skipRedis = true
		return container
	}
	rdb = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	return container
}

func joinMap(t *testing.T, name string) *rmap.Map {
	t.Helper()
	m, err := rmap.Join(context.Background(), name, rdb)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// Map updates reach the local replica asynchronously, so reads poll.
func TestStore_ReplicatedMapDelete(t *testing.T) {
	if skipRedis {
		t.Skip("Docker not available")
	}
	ctx := context.Background()
	s := New(joinMap(t, "index-delete"))
	require.NoError(t, s.Save(ctx, indextest.Entry("abc", "VC")))
	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, "abc-VC")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Delete(ctx, "abc-VC"))
	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, "abc-VC")
		return errors.Is(err, index.ErrNotFound)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStore_SharedAcrossProcesses(t *testing.T) {
	if skipRedis {
		t.Skip("Docker not available")
	}
	ctx := context.Background()
	writer := New(joinMap(t, "index-shared"))
	reader := New(joinMap(t, "index-shared"))

	require.NoError(t, writer.Save(ctx, indextest.Entry("abc", "PS")))
	require.Eventually(t, func() bool {
		_, err := reader.Get(ctx, "abc-PS")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	entries, err := reader.List(ctx, "PS")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].Fingerprint)
}
