package whisper

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestPcmToFloat32_Empty(t *testing.T) {
	out := pcmToFloat32(nil)
	if len(out) != 0 {
		t.Fatalf("expected 0 samples, got %d", len(out))
	}
}

func TestPcmToFloat32_FullScale(t *testing.T) {
	tests := []struct {
		name  string
		value int16
		want  float32
	}{
		{"max positive", 32767, 32767.0 / 32768.0},
		{"max negative", -32768, -1.0},
		{"zero", 0, 0.0},
		{"mid positive", 16384, 16384.0 / 32768.0},
		{"mid negative", -16384, -16384.0 / 32768.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, 2)
			binary.LittleEndian.PutUint16(pcm, uint16(tt.value))
			out := pcmToFloat32(pcm)
			if math.Abs(float64(out[0]-tt.want)) > 1e-6 {
				t.Errorf("pcmToFloat32(%d) = %f; want %f", tt.value, out[0], tt.want)
			}
		})
	}
}

func TestPcmToFloat32_OddByteCount(t *testing.T) {
	// 3 bytes → only 1 complete sample (trailing byte ignored)
	pcm := []byte{0x00, 0x40, 0xFF}
	out := pcmToFloat32(pcm)
	if len(out) != 1 {
		t.Fatalf("expected 1 sample from 3-byte input, got %d", len(out))
	}
}

func TestPcmToFloat32Mono_StereoDownmix(t *testing.T) {
	// One stereo frame: left 16384, right 0 → mono average 8192.
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(0)))

	out := pcmToFloat32Mono(pcm, 2)
	if len(out) != 1 {
		t.Fatalf("expected 1 mono sample, got %d", len(out))
	}
	want := float32(8192) / 32768.0
	if math.Abs(float64(out[0]-want)) > 1e-6 {
		t.Errorf("mono sample = %f; want %f", out[0], want)
	}
}

func TestComputeRMS(t *testing.T) {
	tests := []struct {
		name   string
		values []int16
		want   float64
	}{
		{"empty", nil, 0},
		{"silence", []int16{0, 0, 0, 0}, 0},
		{"constant amplitude", []int16{1000, -1000, 1000, -1000}, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, len(tt.values)*2)
			for i, v := range tt.values {
				binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
			}
			got := computeRMS(pcm)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("computeRMS = %f; want %f", got, tt.want)
			}
		})
	}
}

func TestChunkDurationMs(t *testing.T) {
	// 16 kHz mono 16-bit → 32 bytes per ms.
	chunk := make([]byte, 320)
	if got := chunkDurationMs(chunk, 16000, 1); got != 10 {
		t.Errorf("duration = %d ms; want 10", got)
	}
	if got := chunkDurationMs(chunk, 0, 1); got != 0 {
		t.Errorf("invalid sample rate: duration = %d; want 0", got)
	}
}
