package lumipanel

import (
	"time"

	"github.com/google/uuid"
)

// ─── Transport Arayüzleri ───────────────────────────────────────────────────────
//
// Bu arayüzler, protokol mantığını BLE yığınından ayırır. Üretimde ble.go
// içindeki tinygo.org/x/bluetooth tabanlı gerçekleme kullanılır; testlerde
// sahte bir Central yeterlidir. Manager dışında hiçbir bileşen bu
// arayüzlere doğrudan erişmez.

// Advertisement, tarama sırasında görülen tek bir yayın paketini temsil eder.
// Aynı cihaz tarama boyunca birden çok kez görülebilir.
type Advertisement struct {
	Address string // Transport adresi
	Name    string // Yayınlanan cihaz adı (boş olabilir)
	RSSI    int16  // Sinyal gücü (dBm)
}

// Central, BLE merkez (central) rolünün soyutlamasıdır.
type Central interface {
	// Enable, radyoyu kullanıma hazırlar. Platforma göre kullanıcıya izin
	// sorusu gösterebilir; izin verilmezse hata döner.
	Enable() error

	// Scan, verilen servisi yayınlayan cihazlar için taramayı başlatır ve
	// hemen döner. Her görülen yayın için found çağrılır; tarama sırasında
	// oluşan transport hataları failed ile bildirilir ve taramayı sonlandırır.
	Scan(service uuid.UUID, found func(Advertisement), failed func(error)) error

	// StopScan, aktif taramayı durdurur. Tarama yoksa etkisizdir.
	StopScan() error

	// Connect, verilen adrese bağlantı kurar. Verilen süre içinde
	// kurulamazsa ErrConnectTimeout ile sarılmış bir hata döner. Bağlantı
	// sonradan koparsa onDisconnect bir kez çağrılır.
	Connect(address string, timeout time.Duration, onDisconnect func()) (Peripheral, error)
}

// Peripheral, kurulmuş tek bir bağlantıyı temsil eder.
type Peripheral interface {
	// DiscoverCharacteristics, verilen servisin altındaki karakteristikleri
	// bulur ve UUID -> kanal eşlemesi döner. İstenen karakteristiklerden
	// biri eksikse hata döner.
	DiscoverCharacteristics(service uuid.UUID, chars []uuid.UUID) (map[uuid.UUID]Characteristic, error)

	// RequestMTU, bağlantı için MTU anlaşması yapar ve verilen değeri döner.
	// Anlaşma başarısızlığı bağlantıyı bozmaz; çağıran varsayılana düşer.
	RequestMTU(mtu uint16) (uint16, error)

	// Disconnect, bağlantıyı kapatır. Tekrarlanan çağrılar etkisizdir.
	Disconnect() error
}

// Characteristic, bağlı cihazdaki tek bir GATT kanalını temsil eder.
type Characteristic interface {
	// Write, onaylı yazma yapar; transport alındıyı doğrulayana kadar bloklar.
	Write(p []byte) error

	// WriteWithoutResponse, onaysız yazma yapar; alındı beklenmez.
	WriteWithoutResponse(p []byte) error

	// Subscribe, kanal bildirimlerini dinlemeye başlar. Her bildirimde fn
	// çağrılır. Kanal bildirimi desteklemiyorsa hata döner.
	Subscribe(fn func(p []byte)) error

	// Unsubscribe, bildirim aboneliğini sonlandırır. Idempotenttir.
	Unsubscribe() error
}
