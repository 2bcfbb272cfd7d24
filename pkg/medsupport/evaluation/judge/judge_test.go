package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"kgeyst.com/medsupport/pkg/common"
)

func TestOpenAIJudge(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()
	judge := NewOpenAIJudge("secret", server.URL+"/v1", "judge-model", rate.NewLimiter(rate.Inf, 0))
	defer func() {
		_ = judge.Close()
	}()

	verdict, err := judge.Judge(context.Background(), "Rate this.")
	require.NoError(t, err)

	assert.Equal(t, "4", verdict)
	assert.Equal(t, "judge-model", received["model"])
}

func TestOpenAIJudge_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAIJudge("secret", server.URL+"/v1", "m", rate.NewLimiter(rate.Inf, 0)).Judge(context.Background(), "x")

	assert.ErrorIs(t, err, errNoChoices)
}

func TestOpenAIJudge_RateLimitHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	require.True(t, limiter.Allow())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOpenAIJudge("secret", "http://127.0.0.1:1/v1", "m", limiter).Judge(ctx, "x")

	assert.ErrorContains(t, err, "rate limit error")
}

func TestResponseText(t *testing.T) {
	text, err := responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Score: "), genai.Text("5")}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Score: 5", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, errNoCandidates)
}

func TestNewJudgeFromConfig_NoKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	for _, provider := range []string{ProviderGemini, ProviderOpenAI} {
		judge, err := NewJudgeFromConfig(context.Background(), common.NewConfig(map[string]any{ConfigKeyJudgeProvider: provider}))
		require.NoError(t, err)
		assert.Nil(t, judge)
	}
}

func TestNewJudgeFromConfig_OpenAI(t *testing.T) {
	judge, err := NewJudgeFromConfig(context.Background(), common.NewConfig(map[string]any{
		ConfigKeyJudgeProvider: ProviderOpenAI,
		ConfigKeyOpenAIAPIKey:  "secret",
	}))
	require.NoError(t, err)

	assert.NotNil(t, judge)
}

func TestNewJudgeFromConfig_UnknownProvider(t *testing.T) {
	_, err := NewJudgeFromConfig(context.Background(), common.NewConfig(map[string]any{ConfigKeyJudgeProvider: "oracle"}))

	assert.Error(t, err)
}
