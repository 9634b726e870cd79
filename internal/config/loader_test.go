package config_test

import (
	"strings"
	"testing"

	"github.com/remindai/remind/internal/config"
	"github.com/remindai/remind/internal/speech"
)

func TestLoadFromReader_ValidConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: info
providers:
  stt:
    name: whisper-native
    model: /models/ggml-base.en.bin
  tts:
    name: coqui
    base_url: http://localhost:5002
  embeddings:
    name: openai
    api_key: sk-test
storage:
  postgres_dsn: "postgres://localhost/remind"
  embedding_dimensions: 1536
voice:
  locale: en-US
  rate: 0.9
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Providers.STT.Name != "whisper-native" {
		t.Errorf("stt provider: got %q, want %q", cfg.Providers.STT.Name, "whisper-native")
	}
	if cfg.Storage.EmbeddingDimensions != 1536 {
		t.Errorf("embedding_dimensions: got %d, want 1536", cfg.Storage.EmbeddingDimensions)
	}
	if cfg.Voice.Rate != 0.9 {
		t.Errorf("voice.rate: got %v, want 0.9", cfg.Voice.Rate)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_adress: ":8080"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "decode yaml") {
		t.Errorf("error should mention yaml decoding, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bananas
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_VoiceRateOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  rate: 3.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range rate, got nil")
	}
	if !strings.Contains(err.Error(), "voice.rate") {
		t.Errorf("error should mention voice.rate, got: %v", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/remind/cert.pem
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
voice:
  rate: 0.1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "voice.rate") {
		t.Errorf("error should mention voice.rate, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	sttNames := config.ValidProviderNames["stt"]
	if len(sttNames) == 0 {
		t.Fatal("ValidProviderNames[\"stt\"] should not be empty")
	}
	found := false
	for _, n := range sttNames {
		if n == "whisper-native" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"stt\"] should contain \"whisper-native\"")
	}
}

func TestVoiceConfig_EnabledDefaultsToTrue(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  locale: en-GB
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Voice.Enabled() {
		t.Error("Enabled() should be true when output_enabled is absent")
	}

	off := false
	cfg.Voice.OutputEnabled = &off
	if cfg.Voice.Enabled() {
		t.Error("Enabled() should be false when output_enabled is false")
	}
}

func TestVoiceConfig_ApplyTo(t *testing.T) {
	t.Parallel()
	settings := speech.NewSettings()

	off := false
	voice := config.VoiceConfig{OutputEnabled: &off, Locale: "de-DE", Rate: 1.2}
	voice.ApplyTo(settings)

	if settings.OutputEnabled() {
		t.Error("output should be disabled after ApplyTo")
	}
	if got := settings.Locale(); got != "de-DE" {
		t.Errorf("locale: got %q, want %q", got, "de-DE")
	}
	if got := settings.Rate(); got != 1.2 {
		t.Errorf("rate: got %v, want 1.2", got)
	}

	// A sparse block keeps the current locale and rate.
	config.VoiceConfig{}.ApplyTo(settings)
	if got := settings.Locale(); got != "de-DE" {
		t.Errorf("locale after sparse apply: got %q, want %q", got, "de-DE")
	}
	if got := settings.Rate(); got != 1.2 {
		t.Errorf("rate after sparse apply: got %v, want 1.2", got)
	}
	if !settings.OutputEnabled() {
		t.Error("sparse apply should re-enable output (absent key means enabled)")
	}
}
