package lumipanel

import (
	"errors"
	"testing"
)

func testPixels(fill byte) []byte {
	buf := make([]byte, FrameBytes)
	for i := range buf {
		buf[i] = fill
	}
	return buf
}

func TestNewFrameValidatesSize(t *testing.T) {
	if _, err := NewFrame(make([]byte, FrameBytes-1), 100); !errors.Is(err, ErrBadFrameSize) {
		t.Errorf("kısa veri için ErrBadFrameSize beklenirdi, alınan %v", err)
	}
	if _, err := NewFrame(make([]byte, FrameBytes+1), 100); !errors.Is(err, ErrBadFrameSize) {
		t.Errorf("uzun veri için ErrBadFrameSize beklenirdi, alınan %v", err)
	}
	if _, err := NewFrame(nil, 100); !errors.Is(err, ErrBadFrameSize) {
		t.Errorf("nil veri için ErrBadFrameSize beklenirdi, alınan %v", err)
	}
}

func TestNewFrameCopiesPixels(t *testing.T) {
	src := testPixels(0xaa)
	frame, err := NewFrame(src, 100)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	// Kaynak dilimi değiştirmek kareyi etkilememelidir.
	src[0] = 0x00
	if frame.PixelBytes()[0] != 0xaa {
		t.Error("kare, kaynak dilimle bellek paylaşıyor")
	}
}

func TestNewFrameClampsDuration(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MinFrameDurationMs},
		{100, 100},
		{60000, MaxFrameDurationMs},
	}
	for _, tt := range tests {
		frame, err := NewFrame(testPixels(0), tt.in)
		if err != nil {
			t.Fatalf("NewFrame: %v", err)
		}
		if got := frame.DurationMs(); got != tt.want {
			t.Errorf("DurationMs(%d girişi) = %d, beklenen %d", tt.in, got, tt.want)
		}
	}
}

func TestNewFrameSequenceValidation(t *testing.T) {
	if _, err := NewFrameSequence(nil); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("boş liste için ErrEmptySequence beklenirdi, alınan %v", err)
	}

	frame, err := NewFrame(testPixels(0), 100)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	over := make([]Frame, MaxFrames+1)
	for i := range over {
		over[i] = frame
	}
	if _, err := NewFrameSequence(over); !errors.Is(err, ErrTooManyFrames) {
		t.Errorf("256 kare için ErrTooManyFrames beklenirdi, alınan %v", err)
	}

	full := over[:MaxFrames]
	seq, err := NewFrameSequence(full)
	if err != nil {
		t.Fatalf("255 kare reddedildi: %v", err)
	}
	if seq.FrameCount() != MaxFrames {
		t.Errorf("FrameCount = %d, beklenen %d", seq.FrameCount(), MaxFrames)
	}
}

func TestSequenceAnimationFlag(t *testing.T) {
	frame, err := NewFrame(testPixels(0), 100)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	single, err := NewFrameSequence([]Frame{frame})
	if err != nil {
		t.Fatalf("NewFrameSequence: %v", err)
	}
	if single.IsAnimated() {
		t.Error("tek karelik dizi animasyonlu işaretlenmemeli")
	}

	multi, err := NewFrameSequence([]Frame{frame, frame})
	if err != nil {
		t.Fatalf("NewFrameSequence: %v", err)
	}
	if !multi.IsAnimated() {
		t.Error("çok karelik dizi animasyonlu işaretlenmeli")
	}

	// Tek kareye inmiş bir GIF yine animasyondur.
	forced, err := NewAnimatedSequence([]Frame{frame})
	if err != nil {
		t.Fatalf("NewAnimatedSequence: %v", err)
	}
	if !forced.IsAnimated() {
		t.Error("NewAnimatedSequence animasyon bayrağını korumalı")
	}
}

func TestSequenceTotals(t *testing.T) {
	f1, _ := NewFrame(testPixels(0), 100)
	f2, _ := NewFrame(testPixels(1), 250)
	f3, _ := NewFrame(testPixels(2), 16)

	seq, err := NewFrameSequence([]Frame{f1, f2, f3})
	if err != nil {
		t.Fatalf("NewFrameSequence: %v", err)
	}

	if got := seq.TotalBytes(); got != 3*FrameBytes {
		t.Errorf("TotalBytes = %d, beklenen %d", got, 3*FrameBytes)
	}
	if got := seq.TotalDurationMs(); got != 366 {
		t.Errorf("TotalDurationMs = %d, beklenen 366", got)
	}

	durs := seq.durations()
	want := []int{100, 250, 16}
	for i, d := range durs {
		if d != want[i] {
			t.Errorf("durations[%d] = %d, beklenen %d", i, d, want[i])
		}
	}
}
