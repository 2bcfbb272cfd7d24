// Package vlm owns the process-wide model handle.
//
// The handle is created on first use and kept for the lifetime of the process: there is no reload, no eviction
// and nothing to tear down. If loading fails, nothing is cached and the next call tries again.
package vlm

import (
	"context"
	"fmt"
	"sync"

	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

// Loader loads the model. It's called at most once successfully.
type Loader func(ctx context.Context) (domain.VisionLanguageModel, error)

type LazyModel struct {
	mutex  sync.Mutex
	name   string
	loader Loader
	model  domain.VisionLanguageModel
}

func NewLazyModel(name string, loader Loader) *LazyModel {
	return &LazyModel{
		name:   name,
		loader: loader,
	}
}

func (l *LazyModel) Name() string {
	return l.name
}

// Load makes sure the model is loaded. Safe to call concurrently; concurrent callers wait for the same load.
func (l *LazyModel) Load(ctx context.Context) (domain.VisionLanguageModel, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.model != nil {
		return l.model, nil
	}
	model, err := l.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrModelNotLoaded, l.name, err)
	}
	l.model = model
	return model, nil
}

// Loaded reports whether the model has been loaded already. Never triggers a load.
func (l *LazyModel) Loaded() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.model != nil
}

// Complete loads the model on first use, then delegates. Only the load is serialized: completions run as
// concurrently as the backend allows.
func (l *LazyModel) Complete(ctx context.Context, request domain.CompleteRequest) (string, error) {
	model, err := l.Load(ctx)
	if err != nil {
		return "", err
	}
	return model.Complete(ctx, request)
}
