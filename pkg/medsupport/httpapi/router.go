package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

// RequestIDHeader echoes the ID under which the request shows up in the logs and the trace log.
const RequestIDHeader = "X-Request-ID"

// Route an endpoint of the API, as logged at startup.
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// Routes lists every endpoint NewRouter registers.
func Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/health"},
		{http.MethodPost, "/api/analyze_text"},
		{http.MethodPost, "/api/simplify_report"},
		{http.MethodPost, "/api/analyze_image"},
		{http.MethodPost, "/api/analyze_note_multimodal"},
		{http.MethodPost, "/api/simplify_report_multimodal"},
	}
}

// NewRouter wires the handler's endpoints. Requests with a wrong method get 405 from the mux itself.
func NewRouter(handler *Handler, logger common.Logger) http.Handler {
	handlers := map[string]http.HandlerFunc{
		"/api/health":                     handler.Health,
		"/api/analyze_text":               handler.AnalyzeText,
		"/api/simplify_report":            handler.SimplifyReport,
		"/api/analyze_image":              handler.AnalyzeImage,
		"/api/analyze_note_multimodal":    handler.AnalyzeNoteMultimodal,
		"/api/simplify_report_multimodal": handler.SimplifyReportMultimodal,
	}
	mux := http.NewServeMux()
	for _, route := range Routes() {
		mux.HandleFunc(route.String(), handlers[route.Path])
	}
	return withRequestID(enableCORS(mux), logger)
}

// enableCORS lets any origin call the API (the frontend is served from another port).
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			// browsers reject "*" for credentialed requests
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		}
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Methods", "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT")
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			header.Set("Access-Control-Allow-Headers", requested)
		} else {
			header.Set("Access-Control-Allow-Headers", "*")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// withRequestID tags the request with a fresh ID (see domain.WithRequestID) and logs its outcome.
func withRequestID(next http.Handler, logger common.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		t := time.Now()
		next.ServeHTTP(recorder, r.WithContext(domain.WithRequestID(r.Context(), requestID)))
		common.Logf(logger, "[%s] %s %s -> %d (%d ms)", requestID, r.Method, r.URL.Path, recorder.status, time.Since(t).Milliseconds())
	})
}

func requestID(r *http.Request) string {
	return domain.RequestIDFromContext(r.Context())
}
