package storagetest

import (
	"context"
	"sync/atomic"

	"github.com/kurihiro0119/repository-feed/internal/storage"
)

// Failing wraps a Storage and returns the configured errors instead of calling it
type Failing struct {
	storage.Storage

	GetErr    error
	SetErr    error
	DeleteErr error

	sets atomic.Int32
}

func (f *Failing) Get(ctx context.Context, key string) ([]byte, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.Storage.Get(ctx, key)
}

func (f *Failing) Set(ctx context.Context, key string, value []byte) error {
	f.sets.Add(1)
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *Failing) Delete(ctx context.Context, key string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.Storage.Delete(ctx, key)
}

// Sets counts calls to Set, including failed ones
func (f *Failing) Sets() int {
	return int(f.sets.Load())
}
