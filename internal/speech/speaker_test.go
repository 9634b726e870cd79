package speech

import (
	"context"
	"testing"
	"time"

	"github.com/remindai/remind/pkg/provider/tts"
	"github.com/remindai/remind/pkg/provider/tts/mock"
)

func TestSpeak_SynthesizesText(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{SynthesizeChunks: [][]byte{[]byte("audio")}}
	settings := NewSettings()

	done := make(chan struct{})
	sink := func(ctx context.Context, pcm <-chan []byte) error {
		defer close(done)
		for range pcm {
		}
		return nil
	}

	sp := NewSpeaker(p, settings, WithSink(sink))
	defer sp.Close()

	sp.Speak(context.Background(), "Opening your reminders")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink was never invoked")
	}

	texts := p.Texts()
	if len(texts) != 1 || texts[0] != "Opening your reminders" {
		t.Errorf("synthesized texts = %v, want [Opening your reminders]", texts)
	}
	if got := p.SynthesizeCalls[0].Voice.Rate; got != DefaultRate {
		t.Errorf("voice rate = %v, want %v", got, DefaultRate)
	}
}

func TestSpeak_OutputDisabled(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	settings := NewSettings()
	settings.SetOutputEnabled(false)

	sp := NewSpeaker(p, settings)
	sp.Speak(context.Background(), "hello")
	sp.Close()

	if n := len(p.Texts()); n != 0 {
		t.Errorf("synthesize called %d times with output disabled, want 0", n)
	}
}

func TestSpeak_NoProvider(t *testing.T) {
	t.Parallel()

	sp := NewSpeaker(nil, NewSettings())
	sp.Speak(context.Background(), "hello")
	sp.Close()
}

func TestSpeak_EmptyText(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	sp := NewSpeaker(p, NewSettings())
	sp.Speak(context.Background(), "   ")
	sp.Close()

	if n := len(p.Texts()); n != 0 {
		t.Errorf("synthesize called %d times for empty text, want 0", n)
	}
}

func TestSpeak_LastRequestWins(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	ctxs := make(chan context.Context, 2)
	sink := func(ctx context.Context, pcm <-chan []byte) error {
		ctxs <- ctx
		<-ctx.Done()
		return ctx.Err()
	}

	sp := NewSpeaker(p, NewSettings(), WithSink(sink))

	sp.Speak(context.Background(), "first")
	var first context.Context
	select {
	case first = <-ctxs:
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance never started")
	}

	sp.Speak(context.Background(), "second")
	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first utterance was not cancelled by the second")
	}

	sp.Close()

	texts := p.Texts()
	if len(texts) != 2 || texts[0] != "first" || texts[1] != "second" {
		t.Errorf("synthesized texts = %v, want [first second]", texts)
	}
}

func TestSpeak_SynthesisErrorIsNonFatal(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{SynthesizeErr: context.DeadlineExceeded}
	sp := NewSpeaker(p, NewSettings())
	sp.Speak(context.Background(), "hello")
	sp.Close()

	// A follow-up utterance still goes through.
	p.SynthesizeErr = nil
	done := make(chan struct{})
	sp2 := NewSpeaker(p, NewSettings(), WithSink(func(ctx context.Context, pcm <-chan []byte) error {
		defer close(done)
		for range pcm {
		}
		return nil
	}))
	sp2.Speak(context.Background(), "again")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up utterance never played")
	}
	sp2.Close()
}

// Voice passed through WithVoice keeps its identity, only the rate follows
// the live settings value.
func TestSpeak_VoiceRateFollowsSettings(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	settings := NewSettings()
	settings.SetRate(1.5)

	done := make(chan struct{})
	sp := NewSpeaker(p, settings,
		WithVoice(tts.Voice{ID: "jenny", Name: "Jenny"}),
		WithSink(func(ctx context.Context, pcm <-chan []byte) error {
			defer close(done)
			for range pcm {
			}
			return nil
		}),
	)
	sp.Speak(context.Background(), "hello")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never played")
	}
	sp.Close()

	call := p.SynthesizeCalls[0]
	if call.Voice.ID != "jenny" {
		t.Errorf("voice ID = %q, want jenny", call.Voice.ID)
	}
	if call.Voice.Rate != 1.5 {
		t.Errorf("voice rate = %v, want 1.5", call.Voice.Rate)
	}
}
