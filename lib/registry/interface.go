package registry

import (
	"context"

	"github.com/ValentinKolb/dTodo/lib/worker"
)

// IRegistry resolves keys to live workers.
type IRegistry interface {
	// Resolve returns the live worker of key, spawning one if there is none.
	// It fails with actor.ErrSpawnFailed if no worker can be created.
	Resolve(ctx context.Context, key string) (h *worker.Handle, err error)
	// Lookup returns the live worker of key without spawning.
	Lookup(ctx context.Context, key string) (h *worker.Handle, ok bool, err error)
	// Keys returns the sorted keys that currently have a worker.
	Keys(ctx context.Context) (keys []string, err error)
	// Stop terminates the worker of key normally and waits for it. Stopping a key
	// without a worker is a no-op.
	Stop(ctx context.Context, key string) (err error)
	// Stats returns lifecycle counters.
	Stats(ctx context.Context) (stats Stats, err error)
	// Shutdown stops all workers, waits for them and terminates the registry.
	Shutdown(ctx context.Context) (err error)
}

// Stats are the lifecycle counters of a registry.
type Stats struct {
	Active        int    `json:"active"`
	Spawned       uint64 `json:"spawned"`
	ExitedNormal  uint64 `json:"exited_normal"`
	ExitedFailed  uint64 `json:"exited_failed"`
	SpawnFailures uint64 `json:"spawn_failures"`
}
