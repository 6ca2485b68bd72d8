package lumipanel

import (
	"fmt"
	"sync"
	"time"
)

// Engine, bağlı bir panele karşı tel protokolünü yürüten aktarım
// motorudur. Manager'ın canlı bağlantısını ödünç alır; kalıcı durum olarak
// yalnızca son ilerleme görüntüsünü tutar. Her işlem önce bağlantının var
// olduğunu doğrular; bağlantı yoksa I/O yapılmadan ErrNotConnected döner.
//
// Kullanım:
//
//	engine := lumipanel.NewEngine(mgr)
//	engine.SetBrightness(128)
//	err := engine.SendSequence(seq)
type Engine struct {
	mgr  *Manager
	opts engineOptions

	// mu, son ilerleme görüntüsünü korur.
	mu     sync.Mutex
	latest TransferProgress

	progSig *signal[TransferProgress]
}

// NewEngine, verilen Manager'a bağlı yeni bir Engine oluşturur.
//
//	engine := lumipanel.NewEngine(mgr,
//	    lumipanel.WithChunkDelay(2*time.Millisecond),
//	    lumipanel.WithProgressCallback(func(p lumipanel.TransferProgress) {
//	        fmt.Printf("%.0f%%\n", p.Fraction()*100)
//	    }),
//	)
func NewEngine(mgr *Manager, options ...EngineOption) *Engine {
	opts := defaultEngineOptions()
	for _, opt := range options {
		opt(&opts)
	}

	return &Engine{
		mgr:     mgr,
		opts:    opts,
		latest:  TransferProgress{State: TransferIdle},
		progSig: newSignal[TransferProgress](),
	}
}

// ─── Komutlar ───────────────────────────────────────────────────────────────────

// SendCommand, komut kanalına onaylı bir yazma yapar. Çağrı, transport
// alındıyı doğrulayana kadar döner; bu yerel bir teslim onayıdır, firmware
// düzeyinde bir uygulama yanıtı değildir.
func (e *Engine) SendCommand(op Opcode, payload ...byte) error {
	ctrl, err := e.mgr.characteristic(ControlCharUUID)
	if err != nil {
		return err
	}

	if err := ctrl.Write(buildCommandPacket(op, payload...)); err != nil {
		return fmt.Errorf("komut gönderilemedi (%s): %w", op, err)
	}

	e.logf("Komut gönderildi: %s", op)
	return nil
}

// SetBrightness, panel parlaklığını ayarlar (0-255).
func (e *Engine) SetBrightness(value byte) error {
	return e.SendCommand(OpSetBrightness, value)
}

// SetMode, panelin görüntüleme modunu değiştirir.
func (e *Engine) SetMode(mode DisplayMode) error {
	return e.SendCommand(OpSetMode, byte(mode))
}

// ClearDisplay, paneli temizler.
func (e *Engine) ClearDisplay() error {
	return e.SendCommand(OpClear)
}

// Abort, alıcıdaki yarım kalmış kare alımını iptal eder ve kare tamponunu
// sıfırlar.
func (e *Engine) Abort() error {
	return e.SendCommand(OpAbort)
}

// SyncClock, panel saatini mevcut sistem zamanıyla eşitler ve saat
// görünümü bayraklarını ayarlar.
func (e *Engine) SyncClock(use24Hour, showSeconds, showDate bool) error {
	clock, err := e.mgr.characteristic(ClockCharUUID)
	if err != nil {
		return err
	}

	pkt := buildClockPacket(time.Now(), use24Hour, showSeconds, showDate)
	if err := clock.Write(pkt); err != nil {
		return fmt.Errorf("saat eşitlenemedi: %w", err)
	}

	e.logf("Saat eşitlendi (24h=%v saniye=%v tarih=%v)", use24Hour, showSeconds, showDate)
	return nil
}

// Ping, cihazın yanıt verip vermediğini sınar. PING opcode'u gönderilir ve
// durum kanalından 0x07 yankısı beklenir; yankı zaman aşımından önce
// gelirse true döner. Abonelik her durumda dönüşten önce sonlandırılır.
func (e *Engine) Ping() (bool, error) {
	status, err := e.mgr.characteristic(StatusCharUUID)
	if err != nil {
		return false, err
	}

	ch := make(chan StatusCode, 8)
	if err := status.Subscribe(func(p []byte) {
		if code, ok := parseStatus(p); ok {
			select {
			case ch <- code:
			default:
			}
		}
	}); err != nil {
		return false, fmt.Errorf("durum kanalına abone olunamadı: %w", err)
	}
	defer status.Unsubscribe()

	if err := e.SendCommand(OpPing); err != nil {
		return false, err
	}

	deadline := time.NewTimer(e.opts.ackTimeout)
	defer deadline.Stop()

	for {
		select {
		case code := <-ch:
			if code == StatusPong {
				e.logf("Ping yanıtlandı")
				return true, nil
			}
			// İlgisiz bildirim; yankıyı beklemeye devam et.
		case <-deadline.C:
			e.logf("Ping zaman aşımına uğradı")
			return false, nil
		}
	}
}

// ─── Kare Aktarımı ──────────────────────────────────────────────────────────────
//
// Bir dizi üç aşamalı bir protokolle gönderilir:
//
//  1. Animasyonlu dizilerde kare süreleri metadata kanalına yazılır
//  2. Her kare için: FRAME_BEGIN (onaylı) -> piksel parçaları (onaysız,
//     parçalar arası sabit bekleme) -> FRAME_COMMIT (onaylı) + durum beklemesi
//  3. Son karenin commit'inden sonra Success yayınlanır
//
// Piksel verisi hacim olarak baskın olduğu için onaysız yazılır; her parça
// için gidiş-dönüş beklemek aktarımı kabul edilemez ölçüde yavaşlatır.
// Komutlar seyrek ve kritik olduğu için gidiş-dönüş maliyetini öder.

// SendSequence, diziyi kare kare, parça parça panele aktarır. İlerleme her
// adımda ilerleme akışından (ve varsa callback'ten) yayınlanır. Herhangi
// bir adımdaki hata kalan kareleri iptal eder; gönderilmiş kareler geri
// alınmaz. Commit beklemesinin zaman aşımı hata sayılmaz: veri zaten
// gönderilmiştir ve kaçan tek bir bildirim tüm aktarımı durdurmamalıdır.
func (e *Engine) SendSequence(seq *FrameSequence) error {
	ctrl, err := e.mgr.characteristic(ControlCharUUID)
	if err != nil {
		return err
	}
	pixel, err := e.mgr.characteristic(PixelCharUUID)
	if err != nil {
		return err
	}
	status, err := e.mgr.characteristic(StatusCharUUID)
	if err != nil {
		return err
	}

	// Animasyon metadata'sı kare aktarımından önce yazılır.
	if seq.IsAnimated() {
		anim, err := e.mgr.characteristic(AnimCharUUID)
		if err != nil {
			return err
		}
		if err := anim.Write(buildAnimMetaPacket(seq.durations())); err != nil {
			return e.failTransfer(0, seq, fmt.Errorf("animasyon metadata'sı gönderilemedi: %w", err))
		}
		e.logf("Animasyon metadata'sı gönderildi (%d kare)", seq.FrameCount())
	}

	totalBytes := seq.TotalBytes()
	totalFrames := seq.FrameCount()
	chunkSize := e.mgr.ChunkSize()
	bytesSent := 0

	e.publish(TransferProgress{
		State:       TransferSending,
		TotalBytes:  totalBytes,
		TotalFrames: totalFrames,
	})
	e.logf("Aktarım başladı: %d kare, %d byte (parça boyutu: %d)", totalFrames, totalBytes, chunkSize)

	for i, frame := range seq.Frames() {
		if err := ctrl.Write(buildFrameBeginPacket(i, totalFrames)); err != nil {
			return e.failTransfer(bytesSent, seq, fmt.Errorf("kare %d başlatılamadı: %w", i, err))
		}

		chunks := splitChunks(frame.PixelBytes(), chunkSize)
		for j, chunk := range chunks {
			if err := pixel.WriteWithoutResponse(chunk); err != nil {
				return e.failTransfer(bytesSent, seq, fmt.Errorf("kare %d, parça %d gönderilemedi: %w", i, j, err))
			}
			bytesSent += len(chunk)

			e.publish(TransferProgress{
				State:        TransferSending,
				BytesSent:    bytesSent,
				TotalBytes:   totalBytes,
				CurrentFrame: i,
				TotalFrames:  totalFrames,
			})

			// Son parçadan sonra beklemeye gerek yok; commit zaten onaylı.
			if j < len(chunks)-1 && e.opts.chunkDelay > 0 {
				time.Sleep(e.opts.chunkDelay)
			}
		}

		if err := e.commitFrame(ctrl, status, i); err != nil {
			return e.failTransfer(bytesSent, seq, err)
		}
	}

	e.publish(TransferProgress{
		State:        TransferSuccess,
		BytesSent:    totalBytes,
		TotalBytes:   totalBytes,
		CurrentFrame: totalFrames - 1,
		TotalFrames:  totalFrames,
	})
	e.logf("Aktarım tamamlandı: %d kare, %d byte", totalFrames, totalBytes)
	return nil
}

// commitFrame, kareyi FRAME_COMMIT ile mühürler ve cihazın durum
// bildirimini bekler. StatusError aktarım hatası yükseltir; zaman aşımı
// bilinçli olarak hata sayılmaz ve bir sonraki kareye geçilir. Abonelik
// her durumda sonuçtan bağımsız olarak sonlandırılır.
func (e *Engine) commitFrame(ctrl, status Characteristic, frameIndex int) error {
	ch := make(chan StatusCode, 8)
	if err := status.Subscribe(func(p []byte) {
		if code, ok := parseStatus(p); ok {
			select {
			case ch <- code:
			default:
			}
		}
	}); err != nil {
		return fmt.Errorf("kare %d: durum kanalına abone olunamadı: %w", frameIndex, err)
	}
	defer status.Unsubscribe()

	if err := ctrl.Write(buildCommandPacket(OpFrameCommit)); err != nil {
		return fmt.Errorf("kare %d commit edilemedi: %w", frameIndex, err)
	}

	deadline := time.NewTimer(e.opts.ackTimeout)
	defer deadline.Stop()

	for {
		select {
		case code := <-ch:
			switch code {
			case StatusOK:
				return nil
			case StatusError:
				return fmt.Errorf("kare %d: %w", frameIndex, ErrTransferFailed)
			default:
				// Busy/Ready gibi ara bildirimler; sonucu beklemeye devam et.
			}
		case <-deadline.C:
			e.logf("Kare %d: %v, sonraki kareye geçiliyor", frameIndex, ErrAckTimeout)
			return nil
		}
	}
}

// failTransfer, aktarımı hata görüntüsüyle sonlandırır ve hatayı döner.
func (e *Engine) failTransfer(bytesSent int, seq *FrameSequence, err error) error {
	e.logf("Aktarım hatası: %v", err)
	e.publish(TransferProgress{
		State:       TransferError,
		BytesSent:   bytesSent,
		TotalBytes:  seq.TotalBytes(),
		TotalFrames: seq.FrameCount(),
		Err:         err,
	})
	return err
}

// ─── İlerleme ───────────────────────────────────────────────────────────────────

// LatestProgress, son yayınlanan ilerleme görüntüsünü döner. Akışa abone
// olmadan önce güncel değeri okumak için kullanılır.
func (e *Engine) LatestProgress() TransferProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

// SubscribeProgress, aktarım ilerleme akışına abone olur.
func (e *Engine) SubscribeProgress() (<-chan TransferProgress, func()) {
	return e.progSig.subscribe()
}

// publish, yeni ilerleme görüntüsünü kaydeder ve dağıtır.
func (e *Engine) publish(p TransferProgress) {
	e.mu.Lock()
	e.latest = p
	e.mu.Unlock()

	e.progSig.publish(p)
	if e.opts.onProgress != nil {
		e.opts.onProgress(p)
	}
}

// logf, yapılandırılmış logger varsa mesaj yazar.
func (e *Engine) logf(format string, v ...interface{}) {
	if e.opts.logger != nil {
		e.opts.logger.Printf("[lumipanel] "+format, v...)
	}
}
