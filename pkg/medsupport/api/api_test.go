package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/filesystem"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/openaicompat"
)

func newInferenceServer(completion string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"medgemma","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": completion},
				"finish_reason": "stop",
			}},
		})
	})
	return httptest.NewServer(mux)
}

func TestNewAPI_UnknownBackend(t *testing.T) {
	_, err := NewAPI(common.NewConfig(map[string]any{ConfigKeyModelBackend: "onnx"}))

	assert.ErrorContains(t, err, `unknown modelBackend: "onnx"`)
}

func TestAPI_EndToEnd(t *testing.T) {
	server := newInferenceServer("thought: The user wants a summary.\nAnswer: Fever and cough.")
	defer server.Close()
	traceLogPath := filepath.Join(t.TempDir(), "traces.jsonl")
	config := common.NewConfig(map[string]any{
		ConfigKeyModelPath:                   "medgemma",
		ConfigKeyTraceLogPath:                traceLogPath,
		openaicompat.ConfigKeyModelServerURL: server.URL + "/v1",
	})
	medsupport, err := NewAPI(config)
	require.NoError(t, err)

	require.NoError(t, medsupport.LoadModel(context.Background()))
	recorder := httptest.NewRecorder()
	medsupport.HTTPHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/analyze_text", strings.NewReader(`{"text":"fever, cough"}`)))
	require.NoError(t, medsupport.Close())

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"result":"Fever and cough.","annotations":[]}`, recorder.Body.String())
	traces, err := filesystem.OpenTraceRepositoryForReading(traceLogPath).FindLatest(10)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, domain.TaskAnalyzeText, traces[0].Task)
	assert.Equal(t, recorder.Header().Get("X-Request-ID"), traces[0].ID)
	assert.Equal(t, "Fever and cough.", traces[0].Result)
}

func TestAPI_LoadModelFailureIsRetried(t *testing.T) {
	medsupport, err := NewAPI(common.NewConfig(map[string]any{
		ConfigKeyModelBackend: BackendMLXVLM,
		ConfigKeyModelPath:    filepath.Join(t.TempDir(), "missing"),
	}))
	require.NoError(t, err)
	defer func() {
		_ = medsupport.Close()
	}()

	assert.ErrorIs(t, medsupport.LoadModel(context.Background()), domain.ErrModelNotLoaded)
	_, err = medsupport.AnalyzeText(context.Background(), "fever")
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
}
