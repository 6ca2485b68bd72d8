package lumipanel

// ─── Kare Modeli ────────────────────────────────────────────────────────────────
//
// Bu dosya, codec'in ürettiği ve Engine'in tükettiği veri sözleşmesini
// içerir: tek bir RGB565 karesi ve sabit ya da animasyonlu bir kare dizisi.
// Her iki tip de kurulduktan sonra değişmez; aynı dizi birden fazla kez
// gönderilebilir.

// Frame, panele gönderilecek tek bir kareyi temsil eder.
// Piksel verisi tam FrameBytes uzunluğundadır: satır satır, sol üstten
// başlayarak, piksel başına 2 byte RGB565 (önce yüksek byte).
type Frame struct {
	pixels     []byte
	durationMs int
}

// NewFrame, piksel verisinden bir kare oluşturur. Veri kopyalanır; boyut
// FrameBytes değilse ErrBadFrameSize döner. Gösterim süresi protokol
// aralığına sıkıştırılır.
func NewFrame(pixels []byte, durationMs int) (Frame, error) {
	if len(pixels) != FrameBytes {
		return Frame{}, ErrBadFrameSize
	}
	buf := make([]byte, FrameBytes)
	copy(buf, pixels)
	return Frame{pixels: buf, durationMs: clampFrameDuration(durationMs)}, nil
}

// PixelBytes, karenin piksel verisini döner. Dönen dilim kare ile
// paylaşılır ve değiştirilmemelidir.
func (f Frame) PixelBytes() []byte {
	return f.pixels
}

// DurationMs, karenin milisaniye cinsinden gösterim süresini döner.
func (f Frame) DurationMs() int {
	return f.durationMs
}

// FrameSequence, gönderilecek sıralı ve boş olmayan kare listesidir.
type FrameSequence struct {
	frames   []Frame
	animated bool
}

// NewFrameSequence, kare listesinden bir dizi oluşturur. Birden çok kare
// varsa dizi animasyonlu kabul edilir. Boş liste ErrEmptySequence, 255
// kareden uzun liste ErrTooManyFrames ile reddedilir.
func NewFrameSequence(frames []Frame) (*FrameSequence, error) {
	return newSequence(frames, len(frames) > 1)
}

// NewAnimatedSequence, diziyi kare sayısından bağımsız olarak animasyonlu
// işaretler. Tek karelik bir animasyon (örneğin tek kareye inmiş bir GIF)
// bu yoldan kurulur.
func NewAnimatedSequence(frames []Frame) (*FrameSequence, error) {
	return newSequence(frames, true)
}

func newSequence(frames []Frame, animated bool) (*FrameSequence, error) {
	if len(frames) == 0 {
		return nil, ErrEmptySequence
	}
	if len(frames) > MaxFrames {
		return nil, ErrTooManyFrames
	}
	copied := make([]Frame, len(frames))
	copy(copied, frames)
	return &FrameSequence{frames: copied, animated: animated}, nil
}

// Frames, dizinin karelerini döner. Dönen dilim değiştirilmemelidir.
func (s *FrameSequence) Frames() []Frame {
	return s.frames
}

// FrameCount, dizideki kare sayısını döner.
func (s *FrameSequence) FrameCount() int {
	return len(s.frames)
}

// IsAnimated, dizinin animasyon olarak gönderilip gönderilmeyeceğini döner.
// Animasyonlu dizilerde aktarımdan önce kare süreleri metadata kanalına
// yazılır.
func (s *FrameSequence) IsAnimated() bool {
	return s.animated
}

// TotalBytes, tüm karelerin toplam piksel byte sayısını döner.
func (s *FrameSequence) TotalBytes() int {
	total := 0
	for _, f := range s.frames {
		total += len(f.pixels)
	}
	return total
}

// TotalDurationMs, animasyonun toplam süresini milisaniye cinsinden döner.
func (s *FrameSequence) TotalDurationMs() int {
	total := 0
	for _, f := range s.frames {
		total += f.durationMs
	}
	return total
}

// durations, kare sürelerini kare sırasına göre döner.
func (s *FrameSequence) durations() []int {
	out := make([]int, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.durationMs
	}
	return out
}
