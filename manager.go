package lumipanel

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager, bir Lumipanel cihazıyla BLE bağlantısını yöneten ana yapıdır.
// İzin alma, tarama, bağlantı kurma ve kanal erişimi buradan geçer;
// transport düzeyindeki tüm durum (aktif bağlantı, anlaşılan MTU, izin
// sonucu) yalnızca Manager'a aittir.
//
// Kullanım:
//
//	mgr := lumipanel.NewManager(lumipanel.NewBLECentral())
//	ok, err := mgr.RequestPermissions()
//	if !ok {
//	    log.Fatal(err)
//	}
//	mgr.StartScan()
type Manager struct {
	// central, altta yatan BLE yığınıdır.
	central Central

	// opts, yapılandırma seçenekleridir.
	opts managerOptions

	// mu, bağlantı durumu için mutex'tir.
	mu sync.Mutex

	// state, mevcut bağlantı durumudur. Geçişler nextState ile belirlenir.
	state ConnState

	// granted, RequestPermissions sonucudur.
	granted bool

	// scanning, aktif bir tarama olup olmadığını gösterir.
	scanning bool

	// scanTimer, tarama zaman aşımını uygular.
	scanTimer *time.Timer

	// devices, bu taramada bulunan cihazlardır. Aynı adres tekrar
	// görüldüğünde kayıt yerine geçer, çoğaltılmaz.
	devices []DiscoveredDevice

	// peripheral, aktif bağlantıdır; bağlı değilken nil'dir.
	peripheral Peripheral

	// connectedAddr, bağlı cihazın adresidir; bağlı değilken boştur.
	connectedAddr string

	// chars, bağlantı kurulumunda bulunan karakteristiklerdir.
	chars map[uuid.UUID]Characteristic

	// chunkSize, MTU anlaşmasından türetilen kullanılabilir parça boyutudur.
	chunkSize int

	stateSig *signal[ConnState]
	devSig   *signal[[]DiscoveredDevice]
	errSig   *signal[error]
}

// NewManager, yeni bir Manager oluşturur. Radyo henüz açılmaz;
// RequestPermissions() çağrılmalıdır.
//
//	mgr := lumipanel.NewManager(central,
//	    lumipanel.WithScanTimeout(5*time.Second),
//	    lumipanel.WithLogger(log.Default()),
//	)
func NewManager(central Central, options ...ManagerOption) *Manager {
	opts := defaultManagerOptions()
	for _, opt := range options {
		opt(&opts)
	}

	return &Manager{
		central:   central,
		opts:      opts,
		state:     StateDisconnected,
		chunkSize: DefaultChunkSize,
		stateSig:  newSignal[ConnState](),
		devSig:    newSignal[[]DiscoveredDevice](),
		errSig:    newSignal[error](),
	}
}

// ─── İzinler ────────────────────────────────────────────────────────────────────

// RequestPermissions, tarama ve bağlantı için gereken radyo yetkilerini
// ister. Platforma göre kullanıcıya izin sorusu gösterilebilir. Tüm
// yetkiler verilirse true döner; verilmezse tarama ve bağlantı çağrıları
// ErrNotGranted ile reddedilir.
func (m *Manager) RequestPermissions() (bool, error) {
	if err := m.central.Enable(); err != nil {
		m.logf("Radyo etkinleştirilemedi: %v", err)
		return false, fmt.Errorf("%w: %v", ErrNotGranted, err)
	}

	m.mu.Lock()
	m.granted = true
	m.mu.Unlock()

	m.logf("Radyo izinleri alındı")
	return true, nil
}

// ─── Tarama ─────────────────────────────────────────────────────────────────────

// StartScan, Lumipanel servisini yayınlayan cihazlar için taramayı
// başlatır. Zaten taranıyorsa etkisizdir. Bulunan cihaz kümesi temizlenir,
// durum Scanning olur ve her bulgu cihaz akışından tam küme olarak
// yayınlanır. Tarama, zaman aşımında kendiliğinden durur.
func (m *Manager) StartScan() error {
	m.mu.Lock()
	if !m.granted {
		m.mu.Unlock()
		return ErrNotGranted
	}
	if m.scanning {
		m.mu.Unlock()
		return nil
	}
	m.scanning = true
	m.devices = nil
	m.transitionLocked(evScanStarted)
	timeout := m.opts.scanTimeout
	m.mu.Unlock()

	m.logf("Tarama başlatılıyor (zaman aşımı: %s)", timeout)

	err := m.central.Scan(ServiceUUID, m.onAdvertisement, m.onScanError)
	if err != nil {
		m.mu.Lock()
		m.scanning = false
		m.transitionLocked(evScanFailed)
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	m.mu.Lock()
	m.scanTimer = time.AfterFunc(timeout, func() {
		m.logf("Tarama zaman aşımına uğradı")
		m.StopScan()
	})
	m.mu.Unlock()

	return nil
}

// StopScan, aktif taramayı durdurur. Taranıyorsa durum Disconnected olur.
// Idempotenttir.
func (m *Manager) StopScan() {
	m.mu.Lock()
	if !m.scanning {
		m.mu.Unlock()
		return
	}
	m.scanning = false
	if m.scanTimer != nil {
		m.scanTimer.Stop()
		m.scanTimer = nil
	}
	m.transitionLocked(evScanStopped)
	m.mu.Unlock()

	if err := m.central.StopScan(); err != nil {
		m.logf("Tarama durdurulamadı: %v", err)
	}
	m.logf("Tarama durduruldu")
}

// onAdvertisement, transport katmanından gelen her yayın için çağrılır.
func (m *Manager) onAdvertisement(adv Advertisement) {
	m.mu.Lock()
	if !m.scanning {
		m.mu.Unlock()
		return
	}

	dev := DiscoveredDevice{Address: adv.Address, Name: adv.Name, RSSI: adv.RSSI}
	replaced := false
	for i := range m.devices {
		if m.devices[i].Address == dev.Address {
			m.devices[i] = dev
			replaced = true
			break
		}
	}
	if !replaced {
		m.devices = append(m.devices, dev)
		m.logf("Cihaz bulundu: %s (%s, %d dBm)", dev.Name, dev.Address, dev.RSSI)
	}

	snapshot := make([]DiscoveredDevice, len(m.devices))
	copy(snapshot, m.devices)
	m.mu.Unlock()

	m.devSig.publish(snapshot)
}

// onScanError, tarama sırasında oluşan transport hatalarını işler.
// Hata, hata akışından yayınlanır ve durum Disconnected'a düşer.
func (m *Manager) onScanError(err error) {
	m.logf("Tarama hatası: %v", err)
	m.errSig.publish(fmt.Errorf("%w: %v", ErrScanFailed, err))

	m.mu.Lock()
	m.scanning = false
	if m.scanTimer != nil {
		m.scanTimer.Stop()
		m.scanTimer = nil
	}
	m.transitionLocked(evScanFailed)
	m.mu.Unlock()
}

// ─── Bağlantı ───────────────────────────────────────────────────────────────────

// requiredChars, protokolün ihtiyaç duyduğu karakteristik kümesidir.
var requiredChars = []uuid.UUID{
	PixelCharUUID,
	ControlCharUUID,
	StatusCharUUID,
	ClockCharUUID,
	AnimCharUUID,
}

// Connect, verilen cihaza bağlanır ve protokolün ihtiyaç duyduğu beş
// karakteristiği bulur. Aktif tarama varsa önce durdurulur. Bağlantı
// kurulduktan sonra MTU anlaşması yapılır; anlaşma başarısızlığı bağlantıyı
// bozmaz, yalnızca parça boyutunu varsayılana düşürür.
func (m *Manager) Connect(dev DiscoveredDevice) error {
	m.mu.Lock()
	if !m.granted {
		m.mu.Unlock()
		return ErrNotGranted
	}
	m.mu.Unlock()

	m.StopScan()

	// Var olan bir bağlantı yeni denemeden önce kapatılır; eski peripheral
	// açıkta bırakılmaz.
	m.mu.Lock()
	if m.peripheral != nil {
		m.mu.Unlock()
		m.logf("Önceki bağlantı kapatılıyor")
		m.Disconnect()
		m.mu.Lock()
	}
	m.transitionLocked(evConnectStart)
	timeout := m.opts.connectTimeout
	m.mu.Unlock()

	m.logf("Bağlanılıyor: %s (%s)", dev.Name, dev.Address)

	peripheral, err := m.central.Connect(dev.Address, timeout, func() {
		m.onLinkDown(dev.Address)
	})
	if err != nil {
		m.failConnect(fmt.Errorf("bağlantı kurulamadı: %w", err))
		return fmt.Errorf("bağlantı kurulamadı: %w", err)
	}

	chars, err := peripheral.DiscoverCharacteristics(ServiceUUID, requiredChars)
	if err != nil {
		peripheral.Disconnect()
		m.failConnect(fmt.Errorf("karakteristikler bulunamadı: %w", err))
		return fmt.Errorf("karakteristikler bulunamadı: %w", err)
	}

	// MTU anlaşması: başarısızlık bağlantıyı düşürmez.
	chunkSize := DefaultChunkSize
	if mtu, mtuErr := peripheral.RequestMTU(RequestedMTU); mtuErr == nil && int(mtu) > attOverhead {
		chunkSize = int(mtu) - attOverhead
		m.logf("MTU anlaşıldı: %d (parça boyutu: %d)", mtu, chunkSize)
	} else {
		m.logf("MTU anlaşması başarısız, varsayılan parça boyutu kullanılacak: %d", chunkSize)
	}

	m.mu.Lock()
	m.peripheral = peripheral
	m.connectedAddr = dev.Address
	m.chars = chars
	m.chunkSize = chunkSize
	m.transitionLocked(evLinkUp)
	m.mu.Unlock()

	m.logf("Bağlantı kuruldu: %s", dev.Address)
	return nil
}

// failConnect, başarısız bir bağlantı denemesini temizler ve durumu
// Error'a geçirir.
func (m *Manager) failConnect(err error) {
	m.logf("Bağlantı hatası: %v", err)
	m.errSig.publish(err)

	m.mu.Lock()
	m.clearLinkLocked()
	m.transitionLocked(evConnectFailed)
	m.mu.Unlock()
}

// onLinkDown, alt bağlantının koptuğunu işler.
func (m *Manager) onLinkDown(addr string) {
	m.mu.Lock()
	if m.connectedAddr != addr {
		m.mu.Unlock()
		return
	}
	m.clearLinkLocked()
	m.transitionLocked(evLinkDown)
	m.mu.Unlock()

	m.logf("Bağlantı koptu: %s", addr)
}

// Disconnect, aktif bağlantıyı kapatır ve durumu Disconnected yapar.
// Idempotenttir; hata döndürmez.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	peripheral := m.peripheral
	m.clearLinkLocked()
	m.transitionLocked(evDisconnected)
	m.mu.Unlock()

	if peripheral != nil {
		if err := peripheral.Disconnect(); err != nil {
			m.logf("Bağlantı kapatılamadı: %v", err)
		}
		m.logf("Bağlantı kapatıldı")
	}
}

// clearLinkLocked, bağlantıya ait tüm durumu temizler (mutex tutulurken
// çağrılır).
func (m *Manager) clearLinkLocked() {
	m.peripheral = nil
	m.connectedAddr = ""
	m.chars = nil
	m.chunkSize = DefaultChunkSize
}

// ─── Durum Erişimi ──────────────────────────────────────────────────────────────

// State, mevcut bağlantı durumunu döner. Akışa abone olmadan önce güncel
// değeri okumak için kullanılır.
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Devices, bu taramada bulunan cihazların kopyasını döner.
func (m *Manager) Devices() []DiscoveredDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]DiscoveredDevice, len(m.devices))
	copy(snapshot, m.devices)
	return snapshot
}

// ConnectedAddress, bağlı cihazın adresini döner; bağlı değilse boş döner.
func (m *Manager) ConnectedAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectedAddr
}

// ChunkSize, piksel yazmaları için kullanılabilir parça boyutunu döner.
func (m *Manager) ChunkSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunkSize
}

// SubscribeState, bağlantı durumu akışına abone olur. Yeni abone yalnızca
// gelecekteki geçişleri görür; güncel değer State() ile okunur.
func (m *Manager) SubscribeState() (<-chan ConnState, func()) {
	return m.stateSig.subscribe()
}

// SubscribeDevices, bulunan cihaz kümesi akışına abone olur. Her tarama
// güncellemesinde tam küme yayınlanır.
func (m *Manager) SubscribeDevices() (<-chan []DiscoveredDevice, func()) {
	return m.devSig.subscribe()
}

// SubscribeErrors, transport hata akışına abone olur.
func (m *Manager) SubscribeErrors() (<-chan error, func()) {
	return m.errSig.subscribe()
}

// ─── Kanal Erişimi ──────────────────────────────────────────────────────────────

// characteristic, bağlı cihazdaki verilen kanalı döner. Saf bir arama
// işlemidir, I/O yapmaz.
func (m *Manager) characteristic(id uuid.UUID) (Characteristic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected || m.chars == nil {
		return nil, ErrNotConnected
	}
	ch, ok := m.chars[id]
	if !ok {
		return nil, fmt.Errorf("kanal bulunamadı: %s", id)
	}
	return ch, nil
}

// ─── Dahili Yardımcılar ─────────────────────────────────────────────────────────

// transitionLocked, durum makinesini ilerletir ve değişiklik varsa durumu
// yayınlar (mutex tutulurken çağrılır).
func (m *Manager) transitionLocked(ev connEvent) {
	next := nextState(m.state, ev)
	if next == m.state {
		return
	}
	m.state = next
	m.stateSig.publish(next)
}

// logf, yapılandırılmış logger varsa mesaj yazar.
func (m *Manager) logf(format string, v ...interface{}) {
	if m.opts.logger != nil {
		m.opts.logger.Printf("[lumipanel] "+format, v...)
	}
}
