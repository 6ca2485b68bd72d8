package lumipanel

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ─── Test Sahteleri ─────────────────────────────────────────────────────────────
//
// Radyo olmadan test için Central/Peripheral/Characteristic sahteleri.
// Yayınlar ve bildirimler testten elle tetiklenir.

type fakeCharacteristic struct {
	mu       sync.Mutex
	writes   [][]byte
	writesNR [][]byte
	writeErr error
	notify   func([]byte)

	// onWrite, her onaylı yazmadan sonra çağrılır. Testler bununla cihaz
	// yanıtlarını (durum bildirimlerini) taklit eder.
	onWrite func(p []byte)
}

func (c *fakeCharacteristic) Write(p []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	buf := append([]byte(nil), p...)
	c.mu.Lock()
	c.writes = append(c.writes, buf)
	hook := c.onWrite
	c.mu.Unlock()
	if hook != nil {
		hook(buf)
	}
	return nil
}

func (c *fakeCharacteristic) WriteWithoutResponse(p []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	buf := append([]byte(nil), p...)
	c.mu.Lock()
	c.writesNR = append(c.writesNR, buf)
	c.mu.Unlock()
	return nil
}

func (c *fakeCharacteristic) Subscribe(fn func(p []byte)) error {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
	return nil
}

func (c *fakeCharacteristic) Unsubscribe() error {
	c.mu.Lock()
	c.notify = nil
	c.mu.Unlock()
	return nil
}

// fireNotify, cihazdan gelen bir bildirimi taklit eder.
func (c *fakeCharacteristic) fireNotify(p []byte) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func (c *fakeCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *fakeCharacteristic) nrWriteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writesNR)
}

// nrConcat, onaysız yazmaların birleşimini döner.
func (c *fakeCharacteristic) nrConcat() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, w := range c.writesNR {
		out = append(out, w...)
	}
	return out
}

type fakePeripheral struct {
	mu           sync.Mutex
	chars        map[uuid.UUID]*fakeCharacteristic
	discoverErr  error
	mtu          uint16
	mtuErr       error
	disconnected bool
}

func (p *fakePeripheral) DiscoverCharacteristics(_ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Characteristic, error) {
	if p.discoverErr != nil {
		return nil, p.discoverErr
	}
	out := make(map[uuid.UUID]Characteristic, len(ids))
	for _, id := range ids {
		ch, ok := p.chars[id]
		if !ok {
			return nil, fmt.Errorf("kanal yok: %s", id)
		}
		out[id] = ch
	}
	return out, nil
}

func (p *fakePeripheral) RequestMTU(_ uint16) (uint16, error) {
	return p.mtu, p.mtuErr
}

func (p *fakePeripheral) Disconnect() error {
	p.mu.Lock()
	p.disconnected = true
	p.mu.Unlock()
	return nil
}

func (p *fakePeripheral) isDisconnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

type fakeCentral struct {
	mu         sync.Mutex
	enableErr  error
	scanErr    error
	connectErr error
	peripheral *fakePeripheral

	found        func(Advertisement)
	failed       func(error)
	stopCount    int
	onDisconnect func()
}

func (c *fakeCentral) Enable() error {
	return c.enableErr
}

func (c *fakeCentral) Scan(_ uuid.UUID, found func(Advertisement), failed func(error)) error {
	if c.scanErr != nil {
		return c.scanErr
	}
	c.mu.Lock()
	c.found = found
	c.failed = failed
	c.mu.Unlock()
	return nil
}

func (c *fakeCentral) StopScan() error {
	c.mu.Lock()
	c.stopCount++
	c.mu.Unlock()
	return nil
}

func (c *fakeCentral) Connect(_ string, _ time.Duration, onDisconnect func()) (Peripheral, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	c.mu.Lock()
	c.onDisconnect = onDisconnect
	c.mu.Unlock()
	return c.peripheral, nil
}

// advertise, tarama callback'ine bir yayın iletir.
func (c *fakeCentral) advertise(adv Advertisement) {
	c.mu.Lock()
	fn := c.found
	c.mu.Unlock()
	if fn != nil {
		fn(adv)
	}
}

// scanFail, tarama hatası callback'ini tetikler.
func (c *fakeCentral) scanFail(err error) {
	c.mu.Lock()
	fn := c.failed
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// dropLink, bağlantı kopmasını taklit eder.
func (c *fakeCentral) dropLink() {
	c.mu.Lock()
	fn := c.onDisconnect
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *fakeCentral) stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCount
}

// newFakePeripheral, beş zorunlu kanalı olan bir peripheral kurar.
func newFakePeripheral(mtu uint16) *fakePeripheral {
	chars := make(map[uuid.UUID]*fakeCharacteristic, len(requiredChars))
	for _, id := range requiredChars {
		chars[id] = &fakeCharacteristic{}
	}
	return &fakePeripheral{chars: chars, mtu: mtu}
}

// newConnectedManager, izinleri alınmış ve sahte bir cihaza bağlanmış bir
// Manager döner.
func newConnectedManager(t *testing.T, mtu uint16, options ...ManagerOption) (*Manager, *fakeCentral, *fakePeripheral) {
	t.Helper()

	peripheral := newFakePeripheral(mtu)
	central := &fakeCentral{peripheral: peripheral}
	mgr := NewManager(central, options...)

	if ok, err := mgr.RequestPermissions(); !ok || err != nil {
		t.Fatalf("RequestPermissions: ok=%v err=%v", ok, err)
	}
	if err := mgr.Connect(DiscoveredDevice{Address: "AA:BB:CC:DD:EE:FF", Name: "panel"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return mgr, central, peripheral
}

// waitFor, koşul sağlanana kadar kısa aralıklarla bekler.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("koşul zamanında sağlanmadı")
}
