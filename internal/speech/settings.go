package speech

import "sync"

// Default voice settings, matching the client's speech synthesis defaults.
const (
	DefaultLocale = "en-US"
	DefaultRate   = 0.9
)

// Settings holds the process-wide voice settings. All accessors are safe for
// concurrent use; the config watcher writes, every Speak call reads. The
// last writer wins.
type Settings struct {
	mu            sync.RWMutex
	outputEnabled bool
	locale        string
	rate          float64
}

// NewSettings returns Settings with voice output enabled, DefaultLocale and
// DefaultRate.
func NewSettings() *Settings {
	return &Settings{
		outputEnabled: true,
		locale:        DefaultLocale,
		rate:          DefaultRate,
	}
}

// OutputEnabled reports whether spoken feedback is enabled.
func (s *Settings) OutputEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputEnabled
}

// SetOutputEnabled enables or disables spoken feedback.
func (s *Settings) SetOutputEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputEnabled = enabled
}

// Locale returns the recognition and synthesis locale, e.g. "en-US".
func (s *Settings) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// SetLocale updates the locale. Empty values are ignored.
func (s *Settings) SetLocale(locale string) {
	if locale == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
}

// Rate returns the speech synthesis rate multiplier.
func (s *Settings) Rate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate
}

// SetRate updates the synthesis rate. Non-positive values are ignored.
func (s *Settings) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}
