package lumipanel

import (
	"bytes"
	"testing"
	"time"
)

func TestBuildCommandPacket(t *testing.T) {
	tests := []struct {
		name    string
		op      Opcode
		payload []byte
		want    []byte
	}{
		{"clear without payload", OpClear, nil, []byte{0x03}},
		{"brightness", OpSetBrightness, []byte{0x80}, []byte{0x05, 0x80}},
		{"mode", OpSetMode, []byte{byte(ModeGIF)}, []byte{0x04, 0x01}},
		{"abort", OpAbort, nil, []byte{0x06}},
		{"ping", OpPing, nil, []byte{0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildCommandPacket(tt.op, tt.payload...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("buildCommandPacket = % x, beklenen % x", got, tt.want)
			}
		})
	}
}

func TestBuildFrameBeginPacket(t *testing.T) {
	got := buildFrameBeginPacket(3, 12)
	want := []byte{0x01, 0x03, 0x0c}
	if !bytes.Equal(got, want) {
		t.Errorf("buildFrameBeginPacket = % x, beklenen % x", got, want)
	}
}

func TestBuildClockPacket(t *testing.T) {
	at := time.Unix(0x6553f100, 0)

	tests := []struct {
		name                            string
		use24Hour, showSeconds, showDate bool
		wantFlags                       byte
	}{
		{"all off", false, false, false, 0x00},
		{"24 hour", true, false, false, 0x01},
		{"seconds", false, true, false, 0x02},
		{"date", false, false, true, 0x04},
		{"all on", true, true, true, 0x07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildClockPacket(at, tt.use24Hour, tt.showSeconds, tt.showDate)
			if len(got) != 5 {
				t.Fatalf("paket boyutu %d, beklenen 5", len(got))
			}
			if !bytes.Equal(got[0:4], []byte{0x65, 0x53, 0xf1, 0x00}) {
				t.Errorf("epoch = % x, beklenen 65 53 f1 00", got[0:4])
			}
			if got[4] != tt.wantFlags {
				t.Errorf("bayraklar = 0x%02x, beklenen 0x%02x", got[4], tt.wantFlags)
			}
		})
	}
}

func TestBuildAnimMetaPacket(t *testing.T) {
	got := buildAnimMetaPacket([]int{100, 5000, -7, 70000})
	want := []byte{
		0x04,
		0x00, 0x64, // 100
		0x13, 0x88, // 5000
		0x00, 0x00, // negatif sıfıra sıkıştırılır
		0xff, 0xff, // taşan değer uint16 tavanına sıkıştırılır
	}
	if !bytes.Equal(got, want) {
		t.Errorf("buildAnimMetaPacket = % x, beklenen % x", got, want)
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name      string
		dataLen   int
		chunkSize int
		wantCount int
		wantLast  int
	}{
		{"exact multiple", 800, 100, 8, 100},
		{"short tail", 850, 100, 9, 50},
		{"single chunk", 50, 100, 1, 50},
		{"full frame default chunk", FrameBytes, DefaultChunkSize, 34, 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.dataLen)
			for i := range data {
				data[i] = byte(i)
			}

			chunks := splitChunks(data, tt.chunkSize)
			if len(chunks) != tt.wantCount {
				t.Fatalf("parça sayısı %d, beklenen %d", len(chunks), tt.wantCount)
			}
			if got := len(chunks[len(chunks)-1]); got != tt.wantLast {
				t.Errorf("son parça %d byte, beklenen %d", got, tt.wantLast)
			}

			// Parçaların birleşimi veriyi birebir yeniden oluşturmalıdır.
			var joined []byte
			for _, c := range chunks {
				joined = append(joined, c...)
			}
			if !bytes.Equal(joined, data) {
				t.Error("parçaların birleşimi kaynak veriyle eşleşmiyor")
			}
		})
	}
}

func TestSplitChunksDegenerate(t *testing.T) {
	if got := splitChunks(nil, 100); got != nil {
		t.Errorf("boş veri için nil beklenirdi, alınan %v", got)
	}
	if got := splitChunks([]byte{1, 2, 3}, 0); got != nil {
		t.Errorf("geçersiz parça boyutu için nil beklenirdi, alınan %v", got)
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := parseStatus(nil); ok {
		t.Error("boş bildirim için ok=false beklenirdi")
	}
	if code, ok := parseStatus([]byte{0x01}); !ok || code != StatusError {
		t.Errorf("parseStatus = (%s, %v), beklenen (Error, true)", code, ok)
	}
	// Fazladan byte'lar yok sayılır.
	if code, ok := parseStatus([]byte{0x07, 0xde, 0xad}); !ok || code != StatusPong {
		t.Errorf("parseStatus = (%s, %v), beklenen (Pong, true)", code, ok)
	}
}

func TestClampFrameDuration(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MinFrameDurationMs},
		{15, MinFrameDurationMs},
		{16, 16},
		{1000, 1000},
		{5000, 5000},
		{5001, MaxFrameDurationMs},
		{-100, MinFrameDurationMs},
	}
	for _, tt := range tests {
		if got := clampFrameDuration(tt.in); got != tt.want {
			t.Errorf("clampFrameDuration(%d) = %d, beklenen %d", tt.in, got, tt.want)
		}
	}
}
