package speech

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/remindai/remind/pkg/provider/stt"
	"github.com/remindai/remind/pkg/provider/stt/mock"
)

const waitTimeout = 2 * time.Second

// scriptedProvider hands out open mock utterances so tests control when
// transcripts arrive.
type scriptedProvider struct {
	mu   sync.Mutex
	utts []*mock.Utterance
}

func (p *scriptedProvider) StartUtterance(_ context.Context, _ stt.UtteranceConfig) (stt.Utterance, error) {
	u := mock.NewUtterance()
	p.mu.Lock()
	p.utts = append(p.utts, u)
	p.mu.Unlock()
	return u, nil
}

func (p *scriptedProvider) utterance(i int) *mock.Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.utts[i]
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestStart_DeliversTranscriptThenEnds(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{Transcript: &stt.Transcript{Text: "go to reminders", Confidence: 0.92}}
	settings := NewSettings()
	l := NewListener(p, settings)

	results := make(chan string, 1)
	ended := make(chan struct{})
	l.Start(context.Background(), func(text string) { results <- text }, func() { close(ended) })

	waitFor(t, ended, "onEnd")

	select {
	case got := <-results:
		if got != "go to reminders" {
			t.Errorf("onResult text = %q, want %q", got, "go to reminders")
		}
	default:
		t.Fatal("onResult never fired")
	}

	cfg := p.StartUtteranceCalls[0].Config
	if cfg.SampleRate != defaultSampleRate || cfg.Channels != 1 || cfg.Locale != DefaultLocale {
		t.Errorf("utterance config = %+v", cfg)
	}
}

func TestStart_NoProviderEndsImmediately(t *testing.T) {
	t.Parallel()

	l := NewListener(nil, NewSettings())

	ended := make(chan struct{})
	l.Start(context.Background(), func(string) { t.Error("onResult fired without a provider") }, func() { close(ended) })
	waitFor(t, ended, "onEnd")

	// Stop after the session already ended stays a no-op.
	l.Stop()
}

func TestStart_ProviderErrorEndsImmediately(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{StartErr: errors.New("device busy")}
	l := NewListener(p, NewSettings())

	ended := make(chan struct{})
	l.Start(context.Background(), func(string) { t.Error("onResult fired after start error") }, func() { close(ended) })
	waitFor(t, ended, "onEnd")
}

func TestStop_EndsActiveSession(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{}
	l := NewListener(p, NewSettings())

	ended := make(chan struct{})
	l.Start(context.Background(), func(string) { t.Error("onResult fired without a transcript") }, func() { close(ended) })

	l.Stop()
	waitFor(t, ended, "onEnd after Stop")
}

func TestStop_IdleIsNoOp(t *testing.T) {
	t.Parallel()

	l := NewListener(&scriptedProvider{}, NewSettings())
	l.Stop()
	l.Stop()
}

func TestStart_StopsPriorSession(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{}
	l := NewListener(p, NewSettings())

	firstEnded := make(chan struct{})
	l.Start(context.Background(), func(string) {}, func() { close(firstEnded) })

	secondResults := make(chan string, 1)
	secondEnded := make(chan struct{})
	l.Start(context.Background(), func(text string) { secondResults <- text }, func() { close(secondEnded) })

	waitFor(t, firstEnded, "first session onEnd")

	p.utterance(1).Emit(stt.Transcript{Text: "show memories"})
	waitFor(t, secondEnded, "second session onEnd")

	select {
	case got := <-secondResults:
		if got != "show memories" {
			t.Errorf("second session transcript = %q, want %q", got, "show memories")
		}
	default:
		t.Fatal("second session onResult never fired")
	}
}

func TestSendAudio_ForwardsToActiveSession(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{}
	l := NewListener(p, NewSettings())

	// Idle: chunks are dropped without error.
	if err := l.SendAudio([]byte{1, 2}); err != nil {
		t.Fatalf("SendAudio while idle: %v", err)
	}

	ended := make(chan struct{})
	l.Start(context.Background(), func(string) {}, func() { close(ended) })

	if err := l.SendAudio([]byte{3, 4}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	u := p.utterance(0)
	l.Stop()
	waitFor(t, ended, "onEnd")

	if len(u.Audio) != 1 || !bytes.Equal(u.Audio[0], []byte{3, 4}) {
		t.Errorf("forwarded audio = %v, want [[3 4]]", u.Audio)
	}
}
