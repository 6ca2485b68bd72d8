package lumipanel

// ─── Durum Makinesi ─────────────────────────────────────────────────────────────
//
// Bağlantı yaşam döngüsü saf bir geçiş fonksiyonuyla modellenir. Manager,
// transport katmanından gelen olayları connEvent değerlerine çevirir ve
// yeni durumu buradan alır; geçiş mantığı I/O olmadan test edilir.

// connEvent, bağlantı durum makinesini ilerleten olayları temsil eder.
type connEvent int

const (
	evScanStarted   connEvent = iota // Tarama başladı
	evScanStopped                    // Tarama durduruldu veya süresi doldu
	evScanFailed                     // Transport tarama hatası bildirdi
	evConnectStart                   // Bağlantı kurulumu başladı
	evLinkUp                         // Alt bağlantı kuruldu
	evLinkDown                       // Alt bağlantı koptu
	evConnectFailed                  // Bağlantı kurulumu başarısız oldu
	evDisconnected                   // Disconnect çağrıldı
)

// nextState, mevcut duruma ve olaya göre yeni bağlantı durumunu döner.
// Tanımsız kombinasyonlarda durum değişmez; ne Error ne de Disconnected
// terminaldir, ikisi de yeniden taramaya izin verir.
func nextState(s ConnState, ev connEvent) ConnState {
	switch ev {
	case evScanStarted:
		if s == StateDisconnected || s == StateError {
			return StateScanning
		}
	case evScanStopped, evScanFailed:
		if s == StateScanning {
			return StateDisconnected
		}
	case evConnectStart:
		return StateConnecting
	case evLinkUp:
		if s == StateConnecting {
			return StateConnected
		}
	case evLinkDown:
		if s == StateConnected || s == StateConnecting {
			return StateDisconnected
		}
	case evConnectFailed:
		return StateError
	case evDisconnected:
		return StateDisconnected
	}
	return s
}
