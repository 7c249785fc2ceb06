package tts

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 8)
	for i, v := range []int16{0, 1000, -1000, 32000} {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}

	data, err := EncodeWAV(pcm, 22050, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatalf("missing RIFF header: % x", data[:8])
	}
	if !bytes.Contains(data[:16], []byte("WAVE")) {
		t.Fatal("missing WAVE marker")
	}
	if len(data) <= 44 {
		t.Fatalf("no sample data written, len=%d", len(data))
	}
}

func TestEncodeWAVRejectsOddLength(t *testing.T) {
	if _, err := EncodeWAV([]byte{1, 2, 3}, 22050, 1); err == nil {
		t.Fatal("expected error for unaligned pcm")
	}
}
