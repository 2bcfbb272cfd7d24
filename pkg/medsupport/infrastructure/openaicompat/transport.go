package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

type repetitionPenaltyKey struct{}

func withRepetitionPenalty(ctx context.Context, penalty float64) context.Context {
	return context.WithValue(ctx, repetitionPenaltyKey{}, penalty)
}

// samplingTransport adds sampling parameters the OpenAI API doesn't define (and go-openai therefore can't send)
// to chat completion requests. Local inference servers (mlx_vlm.server, vLLM, llama.cpp server) accept them.
type samplingTransport struct {
	base http.RoundTripper
}

func newSamplingTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &samplingTransport{base: base}
}

func (s *samplingTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	penalty, ok := request.Context().Value(repetitionPenaltyKey{}).(float64)
	if !ok || request.Method != http.MethodPost || request.Body == nil || !strings.HasSuffix(request.URL.Path, "/chat/completions") {
		return s.base.RoundTrip(request)
	}
	body, err := io.ReadAll(request.Body)
	_ = request.Body.Close()
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	payload["repetition_penalty"] = penalty
	body, err = json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// RoundTrippers must not modify the original request.
	clone := request.Clone(request.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	clone.ContentLength = int64(len(body))
	clone.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return s.base.RoundTrip(clone)
}
