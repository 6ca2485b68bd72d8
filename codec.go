package lumipanel

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"math"

	_ "image/jpeg" // format kaydı
	_ "image/png"  // format kaydı

	"github.com/nfnt/resize"
)

// ─── Piksel Codec ───────────────────────────────────────────────────────────────
//
// Bu dosya, çözülmüş görüntü verisinden protokolün sabit piksel formatına
// deterministik dönüşümü içerir. Boru hattı: yeniden boyutlandırma ->
// parlaklık -> (opsiyonel) gri ton -> RGB565 kuantalama (ham veya
// Floyd-Steinberg dithering ile). Encoder durumsuzdur; aynı girdi ve
// yapılandırma her zaman aynı çıktıyı üretir.

// ResizePolicy, kaynak görüntünün 64x64 hedefe nasıl sığdırılacağını belirler.
type ResizePolicy int

const (
	// ResizeStretch, görüntüyü doğrudan hedef çözünürlüğe çeker.
	// En-boy oranı korunmaz.
	ResizeStretch ResizePolicy = iota

	// ResizeLetterbox, görüntüyü oranını koruyarak hedefin içine sığdırır
	// ve siyah bir tuval üzerinde ortalar.
	ResizeLetterbox

	// ResizeCrop, görüntüyü kısa kenarı hedefi kaplayacak şekilde ölçekler
	// ve merkezden hedef boyuta kırpar.
	ResizeCrop
)

// String, ResizePolicy'nin okunabilir adını döner.
func (p ResizePolicy) String() string {
	switch p {
	case ResizeStretch:
		return "Stretch"
	case ResizeLetterbox:
		return "Letterbox"
	case ResizeCrop:
		return "Crop"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// EncoderOption, Encoder yapılandırma seçeneklerini tanımlar.
type EncoderOption func(*encoderOptions)

type encoderOptions struct {
	policy        ResizePolicy
	brightness    float64
	grayscale     bool
	dither        bool
	fixedDuration int
	durationScale float64
}

func defaultEncoderOptions() encoderOptions {
	return encoderOptions{
		policy:     ResizeStretch,
		brightness: 1.0,
	}
}

// WithResizePolicy, yeniden boyutlandırma politikasını ayarlar.
func WithResizePolicy(p ResizePolicy) EncoderOption {
	return func(o *encoderOptions) {
		o.policy = p
	}
}

// WithBrightness, parlaklık çarpanını ayarlar. Değer [0,1] aralığına
// sıkıştırılır ve kuantalamadan önce her kanala uygulanır.
func WithBrightness(f float64) EncoderOption {
	return func(o *encoderOptions) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		o.brightness = f
	}
}

// WithGrayscale, gri ton dönüşümünü açar. BT.709 katsayıları kullanılır;
// basit ortalama, yeşil ağırlıklı kaynaklarda görüntüyü fazla
// aydınlattığı için tercih edilmez.
func WithGrayscale(enabled bool) EncoderOption {
	return func(o *encoderOptions) {
		o.grayscale = enabled
	}
}

// WithDither, Floyd-Steinberg hata dağıtımlı kuantalamayı açar.
func WithDither(enabled bool) EncoderOption {
	return func(o *encoderOptions) {
		o.dither = enabled
	}
}

// WithFrameDuration, her kare için sabit bir gösterim süresi (ms) ayarlar.
// Kaynağın kendi zamanlamasını geçersiz kılar.
func WithFrameDuration(ms int) EncoderOption {
	return func(o *encoderOptions) {
		o.fixedDuration = ms
	}
}

// WithDurationScale, kaynağın kendi kare sürelerine çarpımsal bir hız
// çarpanı uygular (tipik aralık 0.25x-4x). WithFrameDuration ayarlıysa
// dikkate alınmaz.
func WithDurationScale(f float64) EncoderOption {
	return func(o *encoderOptions) {
		if f < 0.25 {
			f = 0.25
		}
		if f > 4 {
			f = 4
		}
		o.durationScale = f
	}
}

// Encoder, görüntüleri panelin RGB565 kare formatına dönüştürür.
// Yapılandırması dışında durum tutmaz; eşzamanlı kullanım güvenlidir.
type Encoder struct {
	opts encoderOptions
}

// NewEncoder, verilen seçeneklerle yeni bir Encoder oluşturur.
//
//	enc := lumipanel.NewEncoder(
//	    lumipanel.WithResizePolicy(lumipanel.ResizeLetterbox),
//	    lumipanel.WithBrightness(0.8),
//	    lumipanel.WithDither(true),
//	)
func NewEncoder(options ...EncoderOption) *Encoder {
	opts := defaultEncoderOptions()
	for _, opt := range options {
		opt(&opts)
	}
	return &Encoder{opts: opts}
}

// ─── Giriş Noktaları ────────────────────────────────────────────────────────────

// EncodeBytes, ham görüntü verisini çözer ve kodlar. GIF verisi animasyonlu
// bir diziye, diğer formatlar tek karelik bir diziye dönüşür.
func (e *Encoder) EncodeBytes(data []byte) (*FrameSequence, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("görüntü çözülemedi: %w", err)
	}

	if format == "gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("GIF çözülemedi: %w", err)
		}
		return e.EncodeGIF(g)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("görüntü çözülemedi: %w", err)
	}
	return e.EncodeImage(img)
}

// EncodeImage, çözülmüş tek bir görüntüyü tek karelik bir diziye kodlar.
func (e *Encoder) EncodeImage(img image.Image) (*FrameSequence, error) {
	frame, err := e.encodeFrame(img, 0)
	if err != nil {
		return nil, err
	}
	return NewFrameSequence([]Frame{frame})
}

// EncodeGIF, çözülmüş bir GIF'i animasyonlu bir diziye kodlar. Her kaynak
// kare aynı yapılandırmayla bağımsız olarak işlenir; kare süreleri GIF'in
// kendi zamanlamasından türetilir, seçeneklerle geçersiz kılınabilir ve
// her durumda protokol aralığına sıkıştırılır. Tek karelik bir GIF de
// animasyonlu olarak işaretlenir.
func (e *Encoder) EncodeGIF(g *gif.GIF) (*FrameSequence, error) {
	if len(g.Image) == 0 {
		return nil, ErrEmptySequence
	}
	if len(g.Image) > MaxFrames {
		return nil, ErrTooManyFrames
	}

	// GIF kareleri kısmi olabilir; her kare kalıcı bir tuval üzerinde
	// birleştirilir ve disposal kuralları uygulanır.
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	frames := make([]Frame, 0, len(g.Image))
	for i, src := range g.Image {
		var before *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			before = cloneRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		nativeMs := 0
		if i < len(g.Delay) {
			nativeMs = g.Delay[i] * 10 // GIF gecikmesi 1/100 saniyedir
		}

		frame, err := e.encodeFrame(cloneRGBA(canvas), nativeMs)
		if err != nil {
			return nil, fmt.Errorf("kare %d kodlanamadı: %w", i, err)
		}
		frames = append(frames, frame)

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = before
			}
		}
	}

	return NewAnimatedSequence(frames)
}

// ─── Kare Kodlama ───────────────────────────────────────────────────────────────

// encodeFrame, tek bir görüntüyü boru hattından geçirip kare üretir.
func (e *Encoder) encodeFrame(img image.Image, nativeMs int) (Frame, error) {
	rgba := e.resizeToMatrix(img)
	e.adjustChannels(rgba)

	var pixels []byte
	if e.opts.dither {
		pixels = packRGB565Dithered(rgba)
	} else {
		pixels = packRGB565(rgba)
	}

	return NewFrame(pixels, e.frameDuration(nativeMs))
}

// frameDuration, kaynağın kendi süresine geçersiz kılmaları uygular ve
// sonucu protokol aralığına sıkıştırır.
func (e *Encoder) frameDuration(nativeMs int) int {
	d := nativeMs
	if e.opts.fixedDuration > 0 {
		d = e.opts.fixedDuration
	} else if e.opts.durationScale > 0 {
		d = int(math.Round(float64(nativeMs) * e.opts.durationScale))
	}
	return clampFrameDuration(d)
}

// resizeToMatrix, yapılandırılmış politikaya göre görüntüyü 64x64 RGBA
// tuvale dönüştürür.
func (e *Encoder) resizeToMatrix(img image.Image) *image.RGBA {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, MatrixWidth, MatrixHeight))
	}

	switch e.opts.policy {
	case ResizeLetterbox:
		// Oranı koruyarak içine sığdır, siyah tuval üzerinde ortala.
		scale := math.Min(float64(MatrixWidth)/float64(srcW), float64(MatrixHeight)/float64(srcH))
		nw := scaledDim(srcW, scale)
		nh := scaledDim(srcH, scale)
		scaled := resize.Resize(uint(nw), uint(nh), img, resize.Lanczos3)

		canvas := image.NewRGBA(image.Rect(0, 0, MatrixWidth, MatrixHeight))
		offset := image.Pt((MatrixWidth-nw)/2, (MatrixHeight-nh)/2)
		draw.Draw(canvas, image.Rect(0, 0, nw, nh).Add(offset), scaled, scaled.Bounds().Min, draw.Src)
		return canvas

	case ResizeCrop:
		// Kısa kenar hedefi kaplayacak şekilde ölçekle, merkezden kırp.
		scale := math.Max(float64(MatrixWidth)/float64(srcW), float64(MatrixHeight)/float64(srcH))
		nw := scaledDim(srcW, scale)
		nh := scaledDim(srcH, scale)
		scaled := resize.Resize(uint(nw), uint(nh), img, resize.Lanczos3)

		canvas := image.NewRGBA(image.Rect(0, 0, MatrixWidth, MatrixHeight))
		offset := image.Pt((nw-MatrixWidth)/2, (nh-MatrixHeight)/2)
		draw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min.Add(offset), draw.Src)
		return canvas

	default: // ResizeStretch
		scaled := resize.Resize(MatrixWidth, MatrixHeight, img, resize.Lanczos3)
		return toMatrixRGBA(scaled)
	}
}

// adjustChannels, parlaklık çarpanını ve opsiyonel gri ton dönüşümünü
// kanal başına uygular. Değerler yuvarlanır ve [0,255] aralığında kalır.
func (e *Encoder) adjustChannels(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		r := clampChannel(math.Round(float64(img.Pix[i]) * e.opts.brightness))
		g := clampChannel(math.Round(float64(img.Pix[i+1]) * e.opts.brightness))
		b := clampChannel(math.Round(float64(img.Pix[i+2]) * e.opts.brightness))

		if e.opts.grayscale {
			// ITU-R BT.709 luma katsayıları.
			luma := clampChannel(math.Round(0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)))
			r, g, b = luma, luma, luma
		}

		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
	}
}

// ─── RGB565 Kuantalama ──────────────────────────────────────────────────────────

// packRGB565, her kanalı hata takibi olmadan kendi bit genişliğine indirir
// ve kareyi piksel başına 2 byte, önce yüksek byte olacak şekilde paketler.
func packRGB565(img *image.RGBA) []byte {
	out := make([]byte, FrameBytes)
	o := 0
	for i := 0; i < len(img.Pix); i += 4 {
		word := rgb565Word(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		out[o] = byte(word >> 8)
		out[o+1] = byte(word)
		o += 2
	}
	return out
}

// packRGB565Dithered, Floyd-Steinberg hata dağıtımıyla kuantalar. Pikseller
// satır satır işlenir; kanal başına kare boyutunda float hata birikimleri
// tutulur. Her pikselde kuantalanan değer 8 bite geri genişletilir, kalan
// hata dört işlenmemiş komşuya 7/16, 3/16, 5/16, 1/16 ağırlıklarıyla
// dağıtılır; sınır dışına düşen hedefler atlanır. Kanallar birbirinden
// bağımsız işlenir; tek renkli bölgelerde kalan hata sıfır olduğundan
// desen oluşmaz.
func packRGB565Dithered(img *image.RGBA) []byte {
	errR := make([]float64, MatrixWidth*MatrixHeight)
	errG := make([]float64, MatrixWidth*MatrixHeight)
	errB := make([]float64, MatrixWidth*MatrixHeight)

	out := make([]byte, FrameBytes)
	for y := 0; y < MatrixHeight; y++ {
		for x := 0; x < MatrixWidth; x++ {
			idx := y*MatrixWidth + x
			pix := idx * 4

			r5, rErr := quantizeChannel(float64(img.Pix[pix])+errR[idx], 3)
			g6, gErr := quantizeChannel(float64(img.Pix[pix+1])+errG[idx], 2)
			b5, bErr := quantizeChannel(float64(img.Pix[pix+2])+errB[idx], 3)

			diffuse(errR, x, y, rErr)
			diffuse(errG, x, y, gErr)
			diffuse(errB, x, y, bErr)

			word := uint16(r5)<<11 | uint16(g6)<<5 | uint16(b5)
			out[idx*2] = byte(word >> 8)
			out[idx*2+1] = byte(word)
		}
	}
	return out
}

// quantizeChannel, kanal değerini verilen bit kadar sağa kaydırarak
// kuantalar ve 8 bite geri genişletilmiş değere göre kalan hatayı döner.
func quantizeChannel(v float64, shift uint) (quantized byte, residual float64) {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}

	q := byte(int(v) >> shift)

	// Kuantalanan değeri 8 bite geri genişlet: yüksek bitler düşük
	// bitlere kopyalanır (r5<<3|r5>>2 ve g6<<2|g6>>4 kalıbı).
	keep := 8 - shift
	expanded := q<<shift | q>>(keep-shift)

	return q, v - float64(expanded)
}

// diffuse, kalan hatayı Floyd-Steinberg ağırlıklarıyla komşulara dağıtır.
func diffuse(errs []float64, x, y int, residual float64) {
	if residual == 0 {
		return
	}
	spread := func(dx, dy int, weight float64) {
		nx := x + dx
		ny := y + dy
		if nx < 0 || nx >= MatrixWidth || ny < 0 || ny >= MatrixHeight {
			return
		}
		errs[ny*MatrixWidth+nx] += residual * weight
	}
	spread(1, 0, 7.0/16.0)
	spread(-1, 1, 3.0/16.0)
	spread(0, 1, 5.0/16.0)
	spread(1, 1, 1.0/16.0)
}

// rgb565Word, 8 bitlik kanalları tek bir RGB565 sözcüğüne paketler:
// 5 bit kırmızı, 6 bit yeşil, 5 bit mavi.
func rgb565Word(r, g, b byte) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// ─── Yardımcılar ────────────────────────────────────────────────────────────────

// clampChannel, değeri [0,255] aralığına sıkıştırıp byte'a dönüştürür.
func clampChannel(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// scaledDim, boyutu ölçekler ve en az 1 olacak şekilde yuvarlar.
func scaledDim(d int, scale float64) int {
	n := int(math.Round(float64(d) * scale))
	if n < 1 {
		n = 1
	}
	return n
}

// toMatrixRGBA, görüntüyü (0,0)-(64,64) sınırlı, sahipliği codec'e ait bir
// RGBA tuvale kopyalar. Kaynak bir SubImage olabilir veya boyut değişmediği
// için çağıranın görüntüsü olduğu gibi dönmüş olabilir; kopya hem sınır ve
// stride varsayımlarını sabitler hem de sonraki kanal ayarlarının çağıranın
// verisine dokunmamasını sağlar.
func toMatrixRGBA(img image.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, MatrixWidth, MatrixHeight))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// cloneRGBA, tuvalin bağımsız bir kopyasını döner.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}
