// Package mock provides test doubles for the stt.Provider and stt.Utterance
// interfaces.
//
// Use Provider to feed a controlled transcript to consumers and to verify the
// configuration passed to the STT backend:
//
//	p := &mock.Provider{Transcript: &stt.Transcript{Text: "go to reminders"}}
//	u, _ := p.StartUtterance(ctx, cfg)
//	got := <-u.Result()
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/remindai/remind/pkg/provider/stt"
)

// StartUtteranceCall records a single invocation of StartUtterance.
type StartUtteranceCall struct {
	// Ctx is the context passed to StartUtterance.
	Ctx context.Context
	// Config is the UtteranceConfig passed to StartUtterance.
	Config stt.UtteranceConfig
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Transcript, when non-nil, is emitted on the Result channel of every
	// utterance as soon as the utterance is started. When nil the Result
	// channel stays open until Close (simulating a recogniser that never
	// hears speech).
	Transcript *stt.Transcript

	// StartErr, if non-nil, is returned from StartUtterance instead of an
	// utterance.
	StartErr error

	// --- Call records ---

	// StartUtteranceCalls records every call to StartUtterance in order.
	StartUtteranceCalls []StartUtteranceCall
}

// StartUtterance records the call and returns a new mock utterance, or
// StartErr when configured.
func (p *Provider) StartUtterance(ctx context.Context, cfg stt.UtteranceConfig) (stt.Utterance, error) {
	p.mu.Lock()
	p.StartUtteranceCalls = append(p.StartUtteranceCalls, StartUtteranceCall{Ctx: ctx, Config: cfg})
	transcript := p.Transcript
	err := p.StartErr
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}

	u := &Utterance{result: make(chan stt.Transcript, 1)}
	if transcript != nil {
		u.result <- *transcript
		close(u.result)
		u.closed = true
	}
	return u, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartUtteranceCalls = nil
}

// Utterance is a mock implementation of stt.Utterance. The zero value is not
// usable; obtain instances via Provider.StartUtterance or NewUtterance.
type Utterance struct {
	mu     sync.Mutex
	result chan stt.Transcript
	closed bool

	// SendAudioErr, if non-nil, is returned from every SendAudio call.
	SendAudioErr error

	// Audio accumulates every chunk passed to SendAudio.
	Audio [][]byte
}

// NewUtterance returns an open mock utterance. Use Emit to deliver a
// transcript and Close to end it without one.
func NewUtterance() *Utterance {
	return &Utterance{result: make(chan stt.Transcript, 1)}
}

// Emit delivers t on the Result channel and closes it. Calling Emit on a
// closed utterance is a no-op.
func (u *Utterance) Emit(t stt.Transcript) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.result <- t
	close(u.result)
	u.closed = true
}

// SendAudio records the chunk, or returns SendAudioErr when configured.
func (u *Utterance) SendAudio(chunk []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.SendAudioErr != nil {
		return u.SendAudioErr
	}
	if u.closed {
		return errors.New("mock: utterance is closed")
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	u.Audio = append(u.Audio, c)
	return nil
}

// Result implements stt.Utterance.
func (u *Utterance) Result() <-chan stt.Transcript { return u.result }

// Close closes the Result channel if it is still open. Safe to call more
// than once.
func (u *Utterance) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.closed {
		close(u.result)
		u.closed = true
	}
	return nil
}

// Compile-time interface checks.
var (
	_ stt.Provider  = (*Provider)(nil)
	_ stt.Utterance = (*Utterance)(nil)
)
