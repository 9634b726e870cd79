package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/remindai/remind/internal/command"
	"github.com/remindai/remind/internal/dispatch"
	"github.com/remindai/remind/internal/journal"
	"github.com/remindai/remind/internal/observe"
	"github.com/remindai/remind/internal/speech"
	"github.com/remindai/remind/internal/voicesession"
)

// wsWriteTimeout bounds a single outbound frame write.
const wsWriteTimeout = 5 * time.Second

// clientEvent is one inbound frame on the voice websocket.
type clientEvent struct {
	// Type is one of "toggle", "transcript", "stop", or "route".
	Type string `json:"type"`

	// Purpose selects the listening purpose for "toggle" events:
	// "general", "title", or "description". Empty means general.
	Purpose string `json:"purpose,omitempty"`

	// Text carries the recognised utterance for "transcript" events.
	Text string `json:"text,omitempty"`

	// Route reports the client's current route for "route" events.
	Route string `json:"route,omitempty"`
}

// gatewayEvent is one outbound frame on the voice websocket.
type gatewayEvent struct {
	// Type is one of "listening", "speak", "navigate", "notify", "field",
	// or "sos".
	Type string `json:"type"`

	// Active reports the listening state for "listening" events. Always
	// present on those events, absent otherwise.
	Active *bool `json:"active,omitempty"`

	// Text is the utterance for "speak" events, spoken client-side at Rate.
	Text string `json:"text,omitempty"`
	Rate float64 `json:"rate,omitempty"`

	// Target is the destination route for "navigate" events.
	Target string `json:"target,omitempty"`

	// Severity, Message, and DurationMs describe "notify" events.
	Severity   string `json:"severity,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`

	// Field names the captured form field for "field" events: "title" or
	// "description". Text carries the dictated value.
	Field string `json:"field,omitempty"`
}

// voiceGateway upgrades the connection and runs one voice session per
// websocket client until the client disconnects.
func (s *Server) voiceGateway(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("voice gateway: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	uid := userID(r)
	g := &gatewaySession{conn: conn, metrics: s.metrics}

	// Without server-side providers the client does recognition and
	// synthesis itself and the gateway only relays text.
	var (
		in      speech.Input
		textIn  *gatewayInput
		audioIn func(chunk []byte) error
	)
	if s.stt != nil {
		l := speech.NewListener(s.stt, s.settings)
		in = l
		audioIn = l.SendAudio
	} else {
		textIn = &gatewayInput{}
		in = textIn
	}
	in = &timedInput{Input: in, metrics: s.metrics}

	var out speech.Output = &gatewayOutput{g: g, settings: s.settings}
	if s.tts != nil {
		sp := speech.NewSpeaker(s.tts, s.settings, speech.WithSink(g.audioSink))
		defer sp.Close()
		out = sp
	}

	dctx := func() dispatch.Context {
		d := dispatch.Context{
			Route:    g.route(),
			Navigate: g.navigate,
			Notify:   g.notify,
			Contact: func(ctx context.Context) (*journal.EmergencyContact, error) {
				return s.store.Contact(ctx, uid)
			},
		}
		// Form fields only exist on the create pages.
		switch d.Route {
		case command.TargetAddMemory, command.TargetAddReminder:
			d.SetTitle = func(text string) { g.field("title", text) }
			d.SetDescription = func(text string) { g.field("description", text) }
		}
		return d
	}

	ctrl := voicesession.New(in, out, command.New(), dispatch.New(out), dctx,
		voicesession.WithCommandHook(func(kind command.Kind) {
			s.metrics.RecordCommand(r.Context(), string(kind))
			if kind == command.KindSOS {
				s.metrics.RecordSOS(r.Context())
				g.send(gatewayEvent{Type: "sos"})
			}
		}),
		voicesession.WithStateHook(func(state voicesession.State) {
			active := state == voicesession.StateListening
			if active {
				s.metrics.ActiveVoiceSessions.Add(context.Background(), 1)
			} else {
				s.metrics.ActiveVoiceSessions.Add(context.Background(), -1)
			}
			g.send(gatewayEvent{Type: "listening", Active: &active})
		}),
	)
	defer ctrl.Close()

	slog.Info("voice session connected", "user_id", uid)

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			break
		}

		if typ == websocket.MessageBinary {
			if audioIn == nil {
				slog.Debug("voice gateway: dropping audio frame, no stt provider configured")
				continue
			}
			if err := audioIn(data); err != nil {
				slog.Debug("voice gateway: audio frame rejected", "err", err)
			}
			continue
		}

		var ev clientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Debug("voice gateway: dropping malformed frame", "err", err)
			continue
		}

		switch ev.Type {
		case "toggle":
			ctrl.Toggle(ctx, listenPurpose(ev.Purpose))
		case "transcript":
			if textIn == nil {
				slog.Debug("voice gateway: ignoring transcript, server-side recognition active")
				continue
			}
			textIn.deliver(ev.Text)
		case "stop":
			ctrl.Close()
		case "route":
			g.setRoute(ev.Route)
		default:
			slog.Debug("voice gateway: unknown event type", "type", ev.Type)
		}
	}

	slog.Info("voice session disconnected", "user_id", uid)
	conn.Close(websocket.StatusNormalClosure, "session ended")
}

// listenPurpose maps the wire purpose onto the session purpose.
func listenPurpose(p string) voicesession.Purpose {
	switch p {
	case "title":
		return voicesession.PurposeTitle
	case "description":
		return voicesession.PurposeDescription
	default:
		return voicesession.PurposeGeneral
	}
}

// timedInput records recognition latency, measured from listen start to the
// transcript callback.
type timedInput struct {
	speech.Input
	metrics *observe.Metrics
}

func (t *timedInput) Start(ctx context.Context, onResult func(text string), onEnd func()) {
	start := time.Now()
	t.Input.Start(ctx, func(text string) {
		t.metrics.RecognitionDuration.Record(ctx, time.Since(start).Seconds())
		onResult(text)
	}, onEnd)
}

// gatewaySession owns the outbound half of one voice websocket. Writes are
// serialised; a failed write is logged and dropped, the read loop notices
// the dead connection.
type gatewaySession struct {
	conn    *websocket.Conn
	metrics *observe.Metrics

	mu           sync.Mutex
	currentRoute string
}

func (g *gatewaySession) route() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentRoute
}

func (g *gatewaySession) setRoute(route string) {
	g.mu.Lock()
	g.currentRoute = route
	g.mu.Unlock()
}

func (g *gatewaySession) navigate(target string) {
	g.setRoute(target)
	g.send(gatewayEvent{Type: "navigate", Target: target})
}

func (g *gatewaySession) notify(n dispatch.Notification) {
	g.send(gatewayEvent{
		Type:       "notify",
		Severity:   string(n.Severity),
		Message:    n.Message,
		DurationMs: n.Duration.Milliseconds(),
	})
}

func (g *gatewaySession) field(name, text string) {
	g.send(gatewayEvent{Type: "field", Field: name, Text: text})
}

// audioSink streams synthesized PCM to the client as binary frames. Used as
// the [speech.Speaker] sink when a TTS provider is configured. Channel close
// marks the end of the utterance and records synthesis duration.
func (g *gatewaySession) audioSink(ctx context.Context, pcm <-chan []byte) error {
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-pcm:
			if !ok {
				g.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
				return nil
			}
			g.mu.Lock()
			err := g.conn.Write(ctx, websocket.MessageBinary, chunk)
			g.mu.Unlock()
			if err != nil {
				return fmt.Errorf("server: write audio frame: %w", err)
			}
		}
	}
}

func (g *gatewaySession) send(ev gatewayEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("voice gateway: marshal event", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("voice gateway: write failed", "type", ev.Type, "err", err)
	}
}

// gatewayOutput speaks by handing the text to the client, which synthesises
// locally. Honours the shared voice output toggle and rate.
type gatewayOutput struct {
	g        *gatewaySession
	settings *speech.Settings
}

func (o *gatewayOutput) Speak(_ context.Context, text string) {
	if !o.settings.OutputEnabled() {
		slog.Debug("voice output disabled, skipping response", "text", text)
		return
	}
	o.g.send(gatewayEvent{Type: "speak", Text: text, Rate: o.settings.Rate()})
}

var _ speech.Output = (*gatewayOutput)(nil)

// gatewayInput adapts client-pushed transcripts to the [speech.Input]
// contract: at most one result per session, onEnd exactly once.
type gatewayInput struct {
	mu       sync.Mutex
	active   bool
	onResult func(text string)
	onEnd    func()
}

func (i *gatewayInput) Start(_ context.Context, onResult func(text string), onEnd func()) {
	i.mu.Lock()
	prevEnd := i.endLocked()
	i.active = true
	i.onResult = onResult
	i.onEnd = onEnd
	i.mu.Unlock()

	if prevEnd != nil {
		prevEnd()
	}
}

func (i *gatewayInput) Stop() {
	i.mu.Lock()
	end := i.endLocked()
	i.mu.Unlock()

	if end != nil {
		end()
	}
}

// deliver feeds one transcript into the active session and ends it.
// Transcripts arriving while idle are dropped.
func (i *gatewayInput) deliver(text string) {
	i.mu.Lock()
	if !i.active {
		i.mu.Unlock()
		slog.Debug("voice gateway: dropping transcript while idle", "text", text)
		return
	}
	onResult := i.onResult
	end := i.endLocked()
	i.mu.Unlock()

	onResult(text)
	if end != nil {
		end()
	}
}

// endLocked deactivates the session and returns its onEnd callback, or nil
// when idle. Caller holds i.mu.
func (i *gatewayInput) endLocked() func() {
	if !i.active {
		return nil
	}
	i.active = false
	end := i.onEnd
	i.onResult = nil
	i.onEnd = nil
	return end
}

var _ speech.Input = (*gatewayInput)(nil)
