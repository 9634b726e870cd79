// Package server exposes the remind journal and voice pipeline over HTTP.
//
// The REST surface covers memories, reminders, the emergency contact, and
// the SOS trigger. A websocket endpoint at /api/voice carries the voice
// session protocol: the client streams transcripts and toggle events, the
// server answers with listening state, spoken responses, navigation, and
// notifications.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remindai/remind/internal/health"
	"github.com/remindai/remind/internal/journal"
	"github.com/remindai/remind/internal/observe"
	"github.com/remindai/remind/internal/speech"
	"github.com/remindai/remind/pkg/provider/stt"
	"github.com/remindai/remind/pkg/provider/tts"
)

// Server wires the journal store and the voice pipeline into an HTTP handler.
// Construct with [New]; all fields are fixed after construction.
type Server struct {
	store    journal.Store
	semantic *journal.SemanticIndex
	settings *speech.Settings
	metrics  *observe.Metrics
	health   *health.Handler
	stt      stt.Provider
	tts      tts.Provider
}

// Option is a functional option for [New].
type Option func(*Server)

// WithSemanticIndex enables embedding-based memory search. Without it,
// /api/memories/search falls back to substring matching.
func WithSemanticIndex(idx *journal.SemanticIndex) Option {
	return func(s *Server) { s.semantic = idx }
}

// WithSettings injects the live voice settings shared with the config
// watcher. The default is a fresh [speech.NewSettings].
func WithSettings(st *speech.Settings) Option {
	return func(s *Server) { s.settings = st }
}

// WithMetrics injects the metrics instance. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth injects the health handler serving /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithSTTProvider enables server-side recognition on the voice gateway:
// clients stream raw PCM as binary frames instead of sending transcripts.
func WithSTTProvider(p stt.Provider) Option {
	return func(s *Server) { s.stt = p }
}

// WithTTSProvider enables server-side synthesis on the voice gateway:
// spoken responses go out as binary PCM frames instead of "speak" events.
func WithTTSProvider(p tts.Provider) Option {
	return func(s *Server) { s.tts = p }
}

// New creates a Server backed by store.
func New(store journal.Store, opts ...Option) *Server {
	s := &Server{store: store}
	for _, o := range opts {
		o(s)
	}
	if s.settings == nil {
		s.settings = speech.NewSettings()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New(health.StoreChecker(store))
	}
	return s
}

// Handler returns the full route tree wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/memories", s.listMemories)
	mux.HandleFunc("POST /api/memories", s.addMemory)
	mux.HandleFunc("GET /api/memories/search", s.searchMemories)
	mux.HandleFunc("GET /api/memories/{id}", s.getMemory)
	mux.HandleFunc("PUT /api/memories/{id}", s.updateMemory)
	mux.HandleFunc("DELETE /api/memories/{id}", s.deleteMemory)

	mux.HandleFunc("GET /api/reminders", s.listReminders)
	mux.HandleFunc("POST /api/reminders", s.addReminder)
	mux.HandleFunc("GET /api/reminders/{id}", s.getReminder)
	mux.HandleFunc("PUT /api/reminders/{id}", s.updateReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.deleteReminder)
	mux.HandleFunc("POST /api/reminders/{id}/complete", s.completeReminder)

	mux.HandleFunc("GET /api/contact", s.getContact)
	mux.HandleFunc("PUT /api/contact", s.putContact)
	mux.HandleFunc("POST /api/sos", s.triggerSOS)

	mux.HandleFunc("GET /api/voice", s.voiceGateway)

	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)

	return observe.Middleware(s.metrics)(mux)
}

// userID resolves the journal user for a request. Single-profile deployments
// omit the header and share the guest journal.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return journal.GuestUserID
}
