package coqui

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/remindai/remind/pkg/provider/tts"
)

// ---- test helpers ----

// buildTestWAV constructs a minimal but valid RIFF/WAVE byte slice containing
// the supplied raw PCM samples. It writes a standard 44-byte header
// (RIFF + fmt + data) so that parseWAV can correctly locate the audio payload.
func buildTestWAV(pcm []byte) []byte {
	fmtSize := uint32(16)
	dataSize := uint32(len(pcm))
	fileSize := 4 + (8 + fmtSize) + (8 + dataSize)

	buf := make([]byte, 0, 12+8+fmtSize+8+dataSize)
	le := binary.LittleEndian

	putU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, []byte("RIFF")...)
	putU32(fileSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	putU32(fmtSize)
	putU16(1)     // PCM format
	putU16(1)     // 1 channel (mono)
	putU32(16000) // sample rate
	putU32(32000) // byte rate
	putU16(2)     // block align
	putU16(16)    // bits per sample

	buf = append(buf, []byte("data")...)
	putU32(dataSize)
	buf = append(buf, pcm...)

	return buf
}

// drainAudio reads all []byte chunks from the audio channel until it is closed
// and returns the concatenated PCM data.
func drainAudio(ch <-chan []byte) []byte {
	var out []byte
	for chunk := range ch {
		out = append(out, chunk...)
	}
	return out
}

// ---- tests ----

func TestSynthesize_StripsWAVHeader(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	var gotText, gotSpeaker string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ttsEndpoint {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotText = r.URL.Query().Get("text")
		gotSpeaker = r.URL.Query().Get("speaker_id")
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(buildTestWAV(pcm))
	}))
	defer srv.Close()

	p := New(srv.URL, WithTimeout(5*time.Second))
	ch, err := p.Synthesize(context.Background(), "Opening your reminders", tts.Voice{ID: "p225"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	got := drainAudio(ch)
	if string(got) != string(pcm) {
		t.Errorf("audio = %v; want %v", got, pcm)
	}
	if gotText != "Opening your reminders" {
		t.Errorf("text param = %q", gotText)
	}
	if gotSpeaker != "p225" {
		t.Errorf("speaker_id param = %q", gotSpeaker)
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello", tts.Voice{}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestSynthesize_InvalidWAV(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not a wav file"))
	}))
	defer srv.Close()

	p := New(srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello", tts.Voice{}); err == nil {
		t.Fatal("expected error for invalid WAV payload")
	}
}

func TestListVoices_SingleSpeakerFallsBackToModelName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"model_name":"tts_models/en/ljspeech/vits"}`))
	}))
	defer srv.Close()

	p := New(srv.URL)
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 {
		t.Fatalf("expected 1 voice, got %d", len(voices))
	}
	if voices[0].Name != "tts_models/en/ljspeech/vits" {
		t.Errorf("voice name = %q", voices[0].Name)
	}
}

func TestListVoices_Speakers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"model_name":"vits","speakers":[{"name":"p225"},{"name":"p226"}]}`))
	}))
	defer srv.Close()

	p := New(srv.URL)
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].ID != "p225" || voices[1].ID != "p226" {
		t.Errorf("voice IDs = %q, %q", voices[0].ID, voices[1].ID)
	}
}

func TestParseWAV_RejectsTruncated(t *testing.T) {
	t.Parallel()

	if _, err := parseWAV([]byte("RIF")); err == nil {
		t.Error("expected error for truncated header")
	}
	if _, err := parseWAV([]byte("RIFFxxxxWAVE")); err == nil {
		t.Error("expected error for missing data chunk")
	}
}

func TestResampleMono16_Identity(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 0, 2, 0, 3, 0}
	out := resampleMono16(pcm, 16000, 16000)
	if string(out) != string(pcm) {
		t.Errorf("identity resample changed data")
	}
}

func TestResampleMono16_Halves(t *testing.T) {
	t.Parallel()

	// 4 samples at 32 kHz → 2 samples at 16 kHz.
	pcm := make([]byte, 8)
	out := resampleMono16(pcm, 32000, 16000)
	if len(out) != 4 {
		t.Errorf("resampled length = %d; want 4", len(out))
	}
}
