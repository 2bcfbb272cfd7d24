package vlm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

type echoModel struct{}

func (e *echoModel) Name() string {
	return "echo"
}

func (e *echoModel) Complete(_ context.Context, request domain.CompleteRequest) (string, error) {
	return "echo: " + request.Prompt, nil
}

func TestLazyModel_LoadsOnFirstUseOnly(t *testing.T) {
	var loads int32
	model := NewLazyModel("medgemma", func(ctx context.Context) (domain.VisionLanguageModel, error) {
		atomic.AddInt32(&loads, 1)
		return &echoModel{}, nil
	})
	assert.False(t, model.Loaded())
	assert.Equal(t, int32(0), atomic.LoadInt32(&loads))

	for i := 0; i < 3; i++ {
		response, err := model.Complete(context.Background(), domain.CompleteRequest{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "echo: hi", response)
	}

	assert.True(t, model.Loaded())
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestLazyModel_ConcurrentFirstUse(t *testing.T) {
	var loads int32
	model := NewLazyModel("medgemma", func(ctx context.Context) (domain.VisionLanguageModel, error) {
		atomic.AddInt32(&loads, 1)
		return &echoModel{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := model.Complete(context.Background(), domain.CompleteRequest{Prompt: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestLazyModel_FailedLoadIsRetried(t *testing.T) {
	attempts := 0
	model := NewLazyModel("medgemma", func(ctx context.Context) (domain.VisionLanguageModel, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return &echoModel{}, nil
	})

	_, err := model.Complete(context.Background(), domain.CompleteRequest{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, model.Loaded())

	response, err := model.Complete(context.Background(), domain.CompleteRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "echo: x", response)
	assert.Equal(t, 2, attempts)
}
