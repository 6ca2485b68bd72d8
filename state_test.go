package lumipanel

import "testing"

func TestNextState(t *testing.T) {
	tests := []struct {
		name  string
		state ConnState
		event connEvent
		want  ConnState
	}{
		{"scan from disconnected", StateDisconnected, evScanStarted, StateScanning},
		{"scan from error", StateError, evScanStarted, StateScanning},
		{"scan ignored while connected", StateConnected, evScanStarted, StateConnected},
		{"scan ignored while connecting", StateConnecting, evScanStarted, StateConnecting},
		{"scan stop", StateScanning, evScanStopped, StateDisconnected},
		{"scan stop ignored when idle", StateDisconnected, evScanStopped, StateDisconnected},
		{"scan failure", StateScanning, evScanFailed, StateDisconnected},
		{"connect start from scanning", StateScanning, evConnectStart, StateConnecting},
		{"connect start from disconnected", StateDisconnected, evConnectStart, StateConnecting},
		{"link up", StateConnecting, evLinkUp, StateConnected},
		{"link up ignored when idle", StateDisconnected, evLinkUp, StateDisconnected},
		{"link down while connected", StateConnected, evLinkDown, StateDisconnected},
		{"link down while connecting", StateConnecting, evLinkDown, StateDisconnected},
		{"link down ignored when idle", StateDisconnected, evLinkDown, StateDisconnected},
		{"connect failure", StateConnecting, evConnectFailed, StateError},
		{"disconnect from connected", StateConnected, evDisconnected, StateDisconnected},
		{"disconnect from error", StateError, evDisconnected, StateDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextState(tt.state, tt.event); got != tt.want {
				t.Errorf("nextState(%s, %d) = %s, beklenen %s", tt.state, tt.event, got, tt.want)
			}
		})
	}
}

func TestErrorStateIsNotTerminal(t *testing.T) {
	// Error durumundan yeniden taramaya dönülebilmelidir.
	s := nextState(StateConnecting, evConnectFailed)
	if s != StateError {
		t.Fatalf("beklenen Error, alınan %s", s)
	}
	if got := nextState(s, evScanStarted); got != StateScanning {
		t.Errorf("Error durumundan tarama başlatılamadı: %s", got)
	}
}
