package lumipanel

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	blue "tinygo.org/x/bluetooth"
)

// ─── BLE Sürücüsü ───────────────────────────────────────────────────────────────
//
// Bu dosya, Central arayüzünün BlueZ (Linux) üzerindeki üretim gerçeklemesini
// içerir. Adaptör yönetimi, tarama, bağlantı, bildirimler ve MTU sorgusu
// tinygo.org/x/bluetooth üzerinden yürür; karakteristik yazmaları ise doğrudan
// D-Bus'tan yapılır, çünkü paketin bu sürümü onaylı yazmayı (write request)
// açığa çıkarmaz ve komut/saat/metadata kanalları onaylı teslim gerektirir.
// Protokol mantığı transport.go'daki arayüzlere karşı yazıldığı için bu dosya
// dışında ne bluetooth ne de dbus paketine bağımlılık vardır.

const (
	bluezBus      = "org.bluez"
	bluezCharIfce = "org.bluez.GattCharacteristic1"
)

// BLECentral, sistemin varsayılan BLE adaptörünü saran Central gerçeklemesidir.
type BLECentral struct {
	adapter *blue.Adapter

	mu  sync.Mutex
	bus *dbus.Conn

	// onDisconnect, adres başına bağlantı kopma callback'lerini tutar.
	// Adaptörün tek bağlantı kopma kancası buradan dağıtılır.
	onDisconnect map[string]func()

	handlerSet bool
}

// NewBLECentral, varsayılan adaptörü kullanan yeni bir BLECentral oluşturur.
func NewBLECentral() *BLECentral {
	return &BLECentral{
		adapter:      blue.DefaultAdapter,
		onDisconnect: make(map[string]func()),
	}
}

// Enable, adaptörü etkinleştirir ve sistem D-Bus bağlantısını açar. Platform,
// radyo erişimi için kullanıcıya izin sorusu gösterebilir.
func (c *BLECentral) Enable() error {
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("adaptör etkinleştirilemedi: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bus == nil {
		bus, err := dbus.ConnectSystemBus()
		if err != nil {
			return fmt.Errorf("sistem D-Bus bağlantısı açılamadı: %w", err)
		}
		c.bus = bus
	}

	if !c.handlerSet {
		c.adapter.SetConnectHandler(func(device blue.Device, connected bool) {
			if connected {
				return
			}
			addr := device.Address.String()
			c.mu.Lock()
			fn := c.onDisconnect[addr]
			delete(c.onDisconnect, addr)
			c.mu.Unlock()
			if fn != nil {
				fn()
			}
		})
		c.handlerSet = true
	}
	return nil
}

// Scan, verilen servisi yayınlayan cihazlar için taramayı başlatır ve hemen
// döner. Adaptörün tarama döngüsü arka planda çalışır; StopScan çağrılana
// kadar her eşleşen yayın için found çağrılır.
func (c *BLECentral) Scan(service uuid.UUID, found func(Advertisement), failed func(error)) error {
	target := bleUUID(service)

	go func() {
		err := c.adapter.Scan(func(_ *blue.Adapter, res blue.ScanResult) {
			if !res.HasServiceUUID(target) {
				return
			}
			found(Advertisement{
				Address: res.Address.String(),
				Name:    res.LocalName(),
				RSSI:    res.RSSI,
			})
		})
		if err != nil && failed != nil {
			failed(err)
		}
	}()

	return nil
}

// StopScan, adaptörün tarama döngüsünü sonlandırır.
func (c *BLECentral) StopScan() error {
	return c.adapter.StopScan()
}

// Connect, verilen adrese bağlanır ve Peripheral döner.
func (c *BLECentral) Connect(address string, timeout time.Duration, onDisconnect func()) (Peripheral, error) {
	mac, err := blue.ParseMAC(address)
	if err != nil {
		return nil, fmt.Errorf("adres çözümlenemedi (%s): %w", address, err)
	}
	addr := blue.Address{MACAddress: blue.MACAddress{MAC: mac}}

	c.mu.Lock()
	bus := c.bus
	c.onDisconnect[address] = onDisconnect
	c.mu.Unlock()
	if bus == nil {
		return nil, fmt.Errorf("adaptör etkin değil, önce Enable() çağırın")
	}

	start := time.Now()
	device, err := c.adapter.Connect(addr, blue.ConnectionParams{
		ConnectionTimeout: blue.NewDuration(timeout),
	})
	if err != nil {
		c.mu.Lock()
		delete(c.onDisconnect, address)
		c.mu.Unlock()
		if time.Since(start) >= timeout {
			return nil, fmt.Errorf("%w: %v", ErrConnectTimeout, err)
		}
		return nil, err
	}

	return &blePeripheral{device: device, bus: bus, address: address}, nil
}

// bleUUID, google/uuid değerini bluetooth paketinin UUID tipine çevirir.
// Paket sabitleri her zaman geçerli olduğundan hata yok sayılır.
func bleUUID(id uuid.UUID) blue.UUID {
	u, _ := blue.ParseUUID(id.String())
	return u
}

// ─── Peripheral ─────────────────────────────────────────────────────────────────

// blePeripheral, kurulmuş tek bir BLE bağlantısını sarar.
type blePeripheral struct {
	device  blue.Device
	bus     *dbus.Conn
	address string

	// mtuChar, MTU sorgusu için kullanılan piksel kanalıdır.
	mtuChar *blue.DeviceCharacteristic
}

// DiscoverCharacteristics, servisin altındaki istenen karakteristikleri bulur.
// Bildirim ve MTU erişimi için adaptör nesneleri, yazmalar için BlueZ D-Bus
// nesneleri eşlenir.
func (p *blePeripheral) DiscoverCharacteristics(service uuid.UUID, chars []uuid.UUID) (map[uuid.UUID]Characteristic, error) {
	svcs, err := p.device.DiscoverServices([]blue.UUID{bleUUID(service)})
	if err != nil {
		return nil, fmt.Errorf("servis bulunamadı (%s): %w", service, err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("servis bulunamadı (%s)", service)
	}

	want := make([]blue.UUID, len(chars))
	for i, id := range chars {
		want[i] = bleUUID(id)
	}

	discovered, err := svcs[0].DiscoverCharacteristics(want)
	if err != nil {
		return nil, fmt.Errorf("karakteristik keşfi başarısız: %w", err)
	}

	objects, err := p.lookupCharObjects(chars)
	if err != nil {
		return nil, fmt.Errorf("karakteristik nesneleri çözümlenemedi: %w", err)
	}

	out := make(map[uuid.UUID]Characteristic, len(chars))
	for _, id := range chars {
		target := bleUUID(id)
		obj, haveObj := objects[id]
		if !haveObj {
			return nil, fmt.Errorf("karakteristik eksik: %s", id)
		}
		for i := range discovered {
			if discovered[i].UUID() == target {
				out[id] = &bleCharacteristic{char: discovered[i], obj: obj}
				if id == PixelCharUUID {
					p.mtuChar = &discovered[i]
				}
				break
			}
		}
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("karakteristik eksik: %s", id)
		}
	}

	return out, nil
}

// lookupCharObjects, bağlı cihazın altındaki GATT karakteristiklerinin D-Bus
// nesnelerini UUID'ye göre eşler. BlueZ, her karakteristiği
// /org/bluez/hciX/dev_AA_BB_.../serviceYY/charZZZZ yolunda yayınlar.
func (p *blePeripheral) lookupCharObjects(chars []uuid.UUID) (map[uuid.UUID]dbus.BusObject, error) {
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := p.bus.Object(bluezBus, "/").Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if err := call.Store(&managed); err != nil {
		return nil, err
	}

	devFragment := "/dev_" + strings.ReplaceAll(strings.ToUpper(p.address), ":", "_") + "/"

	out := make(map[uuid.UUID]dbus.BusObject, len(chars))
	for path, ifaces := range managed {
		props, ok := ifaces[bluezCharIfce]
		if !ok || !strings.Contains(string(path), devFragment) {
			continue
		}
		raw, _ := props["UUID"].Value().(string)
		for _, id := range chars {
			if strings.EqualFold(raw, id.String()) {
				out[id] = p.bus.Object(bluezBus, path)
				break
			}
		}
	}
	return out, nil
}

// RequestMTU, bağlantının MTU değerini sorgular. BlueZ MTU anlaşmasını
// bağlantı kurulumunda kendisi yapar; istenen değer bir öneridir ve dönen
// değer geçerli anlaşmadır.
func (p *blePeripheral) RequestMTU(_ uint16) (uint16, error) {
	if p.mtuChar == nil {
		return 0, fmt.Errorf("MTU sorgusu için kanal yok")
	}
	mtu, err := p.mtuChar.GetMTU()
	if err != nil {
		return 0, fmt.Errorf("MTU sorgulanamadı: %w", err)
	}
	return mtu, nil
}

// Disconnect, bağlantıyı kapatır.
func (p *blePeripheral) Disconnect() error {
	return p.device.Disconnect()
}

// ─── Characteristic ─────────────────────────────────────────────────────────────

// bleCharacteristic, tek bir GATT kanalını sarar. Yazmalar BlueZ D-Bus
// nesnesinden, bildirimler ve MTU adaptör nesnesinden yürür.
type bleCharacteristic struct {
	char blue.DeviceCharacteristic
	obj  dbus.BusObject
}

// Write, onaylı (write request) yazma yapar; çağrı alıcının ATT yanıtına
// kadar bloklar.
func (c *bleCharacteristic) Write(p []byte) error {
	return c.obj.Call(bluezCharIfce+".WriteValue", 0, p, map[string]dbus.Variant{
		"type": dbus.MakeVariant("request"),
	}).Err
}

// WriteWithoutResponse, onaysız (write command) yazma yapar.
func (c *bleCharacteristic) WriteWithoutResponse(p []byte) error {
	return c.obj.Call(bluezCharIfce+".WriteValue", 0, p, map[string]dbus.Variant{
		"type": dbus.MakeVariant("command"),
	}).Err
}

// Subscribe, kanal bildirimlerini dinlemeye başlar.
func (c *bleCharacteristic) Subscribe(fn func(p []byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		fn(buf)
	})
}

// Unsubscribe, bildirim aboneliğini sonlandırır.
func (c *bleCharacteristic) Unsubscribe() error {
	return c.char.EnableNotifications(nil)
}
