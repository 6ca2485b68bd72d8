package lumipanel

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ─── Protokol Sabitleri ─────────────────────────────────────────────────────────

const (
	// MatrixWidth, hedef panelin piksel cinsinden genişliğidir.
	MatrixWidth = 64

	// MatrixHeight, hedef panelin piksel cinsinden yüksekliğidir.
	MatrixHeight = 64

	// FrameBytes, tek bir karenin byte cinsinden boyutudur.
	// Her piksel 2 byte'lık RGB565 değeri olarak kodlanır.
	FrameBytes = MatrixWidth * MatrixHeight * 2

	// MaxFrames, bir animasyondaki maksimum kare sayısıdır.
	// FRAME_BEGIN paketindeki kare index ve kare sayısı alanları 1 byte'tır.
	MaxFrames = 255

	// RequestedMTU, bağlantı sonrası cihazdan istenen MTU değeridir.
	RequestedMTU = 247

	// attOverhead, her ATT yazma işleminde taşınan başlık boyutudur.
	// Kullanılabilir parça boyutu = MTU - attOverhead.
	attOverhead = 3

	// DefaultChunkSize, MTU anlaşması başarısız olursa kullanılan
	// parça boyutudur (247 byte'lık MTU varsayılır).
	DefaultChunkSize = RequestedMTU - attOverhead

	// DefaultScanTimeout, cihaz taramasının varsayılan süresidir.
	// Süre dolduğunda tarama otomatik durdurulur.
	DefaultScanTimeout = 15 * time.Second

	// DefaultConnectTimeout, bağlantı kurulumu için varsayılan zaman aşımıdır.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultAckTimeout, FRAME_COMMIT ve PING sonrası durum bildirimi
	// için beklenen varsayılan süredir.
	DefaultAckTimeout = 5 * time.Second

	// DefaultChunkDelay, ardışık piksel parçaları arasında beklenen süredir.
	// Alıcı firmware'in giriş tamponunun taşmasını önlemek için konulmuş
	// deneysel bir sabittir; protokol gereği değildir. WithChunkDelay ile
	// ayarlanabilir.
	DefaultChunkDelay = 5 * time.Millisecond

	// MinFrameDurationMs ve MaxFrameDurationMs, bir animasyon karesinin
	// gösterim süresinin milisaniye cinsinden alt ve üst sınırlarıdır.
	// Kaynak ne derse desin süre bu aralığa sıkıştırılır.
	MinFrameDurationMs = 16
	MaxFrameDurationMs = 5000
)

// ─── Servis ve Karakteristik UUID'leri ──────────────────────────────────────────
//
// Bu değerler panel firmware'indeki GATT tablosuyla birebir aynı olmalıdır.
// Firmware tek bir birincil servis ve beş karakteristik yayınlar.

var (
	// ServiceUUID, Lumipanel birincil GATT servisidir. Tarama bu servise
	// göre filtrelenir.
	ServiceUUID = uuid.MustParse("7e570001-37c5-446b-aeb2-c4fa28d3c6a0")

	// PixelCharUUID, piksel verisi kanalıdır (write without response).
	PixelCharUUID = uuid.MustParse("7e570002-37c5-446b-aeb2-c4fa28d3c6a0")

	// ControlCharUUID, komut kanalıdır (write with response).
	ControlCharUUID = uuid.MustParse("7e570003-37c5-446b-aeb2-c4fa28d3c6a0")

	// StatusCharUUID, cihazdan gelen durum bildirimlerinin kanalıdır (notify).
	StatusCharUUID = uuid.MustParse("7e570004-37c5-446b-aeb2-c4fa28d3c6a0")

	// ClockCharUUID, saat yapılandırma kanalıdır (write with response).
	ClockCharUUID = uuid.MustParse("7e570005-37c5-446b-aeb2-c4fa28d3c6a0")

	// AnimCharUUID, animasyon metadata kanalıdır (write with response).
	AnimCharUUID = uuid.MustParse("7e570006-37c5-446b-aeb2-c4fa28d3c6a0")
)

// ─── Komut Opcode'ları ──────────────────────────────────────────────────────────

// Opcode, komut kanalına yazılan 1 byte'lık komut kodlarını temsil eder.
type Opcode byte

const (
	// OpFrameBegin, alıcıya yeni bir kare tamponu hazırlamasını söyler.
	// Arkasından 2 byte gelir: kare index ve toplam kare sayısı.
	OpFrameBegin Opcode = 0x01

	// OpFrameCommit, parçaları gönderilmiş karenin tamamlandığını bildirir.
	// Cihaz durum kanalından StatusOK veya StatusError yayınlar.
	OpFrameCommit Opcode = 0x02

	// OpClear, ekranı temizler.
	OpClear Opcode = 0x03

	// OpSetMode, görüntüleme modunu değiştirir. Arkasından 1 byte mod gelir.
	OpSetMode Opcode = 0x04

	// OpSetBrightness, panel parlaklığını ayarlar. Arkasından 1 byte değer gelir.
	OpSetBrightness Opcode = 0x05

	// OpAbort, devam eden kare alımını iptal eder ve tamponu sıfırlar.
	OpAbort Opcode = 0x06

	// OpPing, cihazın yanıt verip vermediğini sınar. Cihaz durum kanalından
	// ilk byte'ı 0x07 olan bir bildirim yayınlar.
	OpPing Opcode = 0x07
)

// String, Opcode'un okunabilir adını döner.
func (o Opcode) String() string {
	switch o {
	case OpFrameBegin:
		return "FrameBegin"
	case OpFrameCommit:
		return "FrameCommit"
	case OpClear:
		return "Clear"
	case OpSetMode:
		return "SetMode"
	case OpSetBrightness:
		return "SetBrightness"
	case OpAbort:
		return "Abort"
	case OpPing:
		return "Ping"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(o))
	}
}

// ─── Görüntüleme Modları ────────────────────────────────────────────────────────

// DisplayMode, OpSetMode komutunun 1 byte'lık argümanıdır.
type DisplayMode byte

const (
	ModeStill    DisplayMode = 0x00 // Sabit görsel
	ModeGIF      DisplayMode = 0x01 // Animasyon
	ModeClock    DisplayMode = 0x02 // Saat
	ModeSpotify  DisplayMode = 0x03 // Çalan parça görseli
	ModePixelArt DisplayMode = 0x04 // Piksel sanat galerisi
)

// String, DisplayMode'un okunabilir adını döner.
func (m DisplayMode) String() string {
	switch m {
	case ModeStill:
		return "Still"
	case ModeGIF:
		return "GIF"
	case ModeClock:
		return "Clock"
	case ModeSpotify:
		return "Spotify"
	case ModePixelArt:
		return "PixelArt"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(m))
	}
}

// ─── Durum Kodları ──────────────────────────────────────────────────────────────

// StatusCode, durum kanalından gelen bildirimin ilk byte'ını temsil eder.
type StatusCode byte

const (
	StatusOK    StatusCode = 0x00 // İşlem başarılı
	StatusError StatusCode = 0x01 // İşlem başarısız
	StatusBusy  StatusCode = 0x02 // Cihaz meşgul
	StatusReady StatusCode = 0x03 // Cihaz hazır

	// StatusPong, PING komutunun yankısıdır; opcode değeriyle aynıdır.
	StatusPong StatusCode = 0x07
)

// String, StatusCode'un okunabilir adını döner.
func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "Error"
	case StatusBusy:
		return "Busy"
	case StatusReady:
		return "Ready"
	case StatusPong:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(s))
	}
}

// ─── Bağlantı Durumu ────────────────────────────────────────────────────────────

// ConnState, Manager'ın bağlantı yaşam döngüsündeki durumunu temsil eder.
// Durum yalnızca Manager tarafından değiştirilir; geçişler state.go'daki
// saf nextState fonksiyonuyla belirlenir.
type ConnState int

const (
	StateDisconnected ConnState = iota // Bağlantı yok
	StateScanning                      // Cihaz taranıyor
	StateConnecting                    // Bağlantı kuruluyor
	StateConnected                     // Bağlı
	StateError                         // Bağlantı hatası
)

// String, ConnState'in okunabilir adını döner.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateScanning:
		return "Scanning"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ─── Veri Yapıları ──────────────────────────────────────────────────────────────

// DiscoveredDevice, tarama sırasında bulunan bir paneli temsil eder.
// Kimlik transport adresidir; aynı cihaz tekrar görüldüğünde kayıt
// çoğaltılmaz, yerine geçer.
type DiscoveredDevice struct {
	Address string // Transport adresi (MAC veya platform kimliği)
	Name    string // Yayınlanan cihaz adı
	RSSI    int16  // Sinyal gücü (dBm)
}

// TransferState, bir aktarımın kaba durumunu temsil eder.
type TransferState int

const (
	TransferIdle    TransferState = iota // Aktarım yok
	TransferSending                      // Aktarım sürüyor
	TransferSuccess                      // Aktarım tamamlandı
	TransferError                        // Aktarım hatayla bitti
)

// String, TransferState'in okunabilir adını döner.
func (s TransferState) String() string {
	switch s {
	case TransferIdle:
		return "Idle"
	case TransferSending:
		return "Sending"
	case TransferSuccess:
		return "Success"
	case TransferError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// TransferProgress, bir aktarımın anlık ilerleme görüntüsüdür.
// Her adımda yeni bir değer yayınlanır; mevcut değer değiştirilmez.
type TransferProgress struct {
	State        TransferState // Aktarım durumu
	BytesSent    int           // Gönderilen toplam byte
	TotalBytes   int           // Gönderilecek toplam byte
	CurrentFrame int           // Şu an gönderilen karenin index'i
	TotalFrames  int           // Toplam kare sayısı
	Err          error         // TransferError durumunda hata detayı
}

// Fraction, ilerlemeyi [0,1] aralığında döner.
func (p TransferProgress) Fraction() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	f := float64(p.BytesSent) / float64(p.TotalBytes)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ─── Hatalar ────────────────────────────────────────────────────────────────────

var (
	// ErrNotGranted, gerekli radyo izinlerinin verilmediğini belirtir.
	ErrNotGranted = errors.New("lumipanel: gerekli izinler verilmedi")

	// ErrNotConnected, bağlantı gerektiren bir işlem bağlantısız çağrıldığında döner.
	ErrNotConnected = errors.New("lumipanel: cihaz bağlı değil, önce Connect() çağırın")

	// ErrScanFailed, transport katmanının taramayı sürdüremediğini belirtir.
	ErrScanFailed = errors.New("lumipanel: tarama başarısız oldu")

	// ErrConnectTimeout, bağlantı kurulumunun zaman aşımına uğradığını belirtir.
	ErrConnectTimeout = errors.New("lumipanel: bağlantı zaman aşımına uğradı")

	// ErrAckTimeout, beklenen durum bildiriminin süresinde gelmediğini belirtir.
	// SendSequence bu hatayı yükseltmez; kayıtlara geçirip devam eder.
	ErrAckTimeout = errors.New("lumipanel: durum bildirimi zaman aşımına uğradı")

	// ErrTransferFailed, cihazın bir kare için StatusError yayınladığını belirtir.
	ErrTransferFailed = errors.New("lumipanel: cihaz aktarım hatası bildirdi")

	// ErrEmptySequence, kare listesi boş bir FrameSequence kurulmak istendiğinde döner.
	ErrEmptySequence = errors.New("lumipanel: kare listesi boş olamaz")

	// ErrTooManyFrames, 255 kareden uzun bir animasyon kurulmak istendiğinde döner.
	// Protokoldeki kare alanları 1 byte'tır; sessizce kırpmak yerine reddedilir.
	ErrTooManyFrames = errors.New("lumipanel: kare sayısı 255 sınırını aşıyor")

	// ErrBadFrameSize, piksel verisi FrameBytes boyutunda olmadığında döner.
	ErrBadFrameSize = errors.New("lumipanel: piksel verisi beklenen boyutta değil")
)

// ─── Seçenek Yapıları ───────────────────────────────────────────────────────────

// ManagerOption, Manager yapılandırma seçeneklerini tanımlar.
// Functional Options pattern kullanılır.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	scanTimeout    time.Duration
	connectTimeout time.Duration
	logger         Logger
}

func defaultManagerOptions() managerOptions {
	return managerOptions{
		scanTimeout:    DefaultScanTimeout,
		connectTimeout: DefaultConnectTimeout,
		logger:         nil,
	}
}

// WithScanTimeout, taramanın otomatik durdurulacağı süreyi ayarlar.
func WithScanTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.scanTimeout = d
	}
}

// WithConnectTimeout, bağlantı kurulumu zaman aşımını ayarlar.
func WithConnectTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.connectTimeout = d
	}
}

// WithLogger, Manager için özel bir loglama arayüzü ayarlar.
// Varsayılan olarak loglama devre dışıdır.
func WithLogger(l Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = l
	}
}

// EngineOption, Engine yapılandırma seçeneklerini tanımlar.
type EngineOption func(*engineOptions)

type engineOptions struct {
	ackTimeout time.Duration
	chunkDelay time.Duration
	logger     Logger
	onProgress func(TransferProgress)
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		ackTimeout: DefaultAckTimeout,
		chunkDelay: DefaultChunkDelay,
		logger:     nil,
		onProgress: nil,
	}
}

// WithAckTimeout, commit ve ping sonrası durum bildirimi bekleme süresini ayarlar.
func WithAckTimeout(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.ackTimeout = d
	}
}

// WithChunkDelay, ardışık piksel parçaları arasındaki bekleme süresini ayarlar.
// Alıcı tamponunun kapasitesine göre ayarlanabilir; sıfır verilirse parçalar
// beklenmeden gönderilir.
func WithChunkDelay(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.chunkDelay = d
	}
}

// WithEngineLogger, Engine için özel bir loglama arayüzü ayarlar.
func WithEngineLogger(l Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// WithProgressCallback, aktarım ilerleme callback'i ayarlar.
// Callback, ilerleme akışına ek olarak her anlık görüntüde çağrılır.
func WithProgressCallback(fn func(TransferProgress)) EngineOption {
	return func(o *engineOptions) {
		o.onProgress = fn
	}
}

// ─── Logger Arayüzü ─────────────────────────────────────────────────────────────

// Logger, kütüphanenin loglama arayüzüdür.
// stdlib log paketi veya zerolog/zap gibi kütüphanelerle uyumludur.
type Logger interface {
	// Printf, formatlanmış bir log mesajı yazar.
	Printf(format string, v ...interface{})
}
