package lumipanel

import (
	"encoding/binary"
	"time"
)

// ─── Paket Oluşturma ────────────────────────────────────────────────────────────
//
// Bu dosya, Lumipanel GATT protokolü için düşük seviyeli paket oluşturma ve
// ayrıştırma fonksiyonlarını içerir. Çok byte'lı alanlar big-endian yazılır.
// Fonksiyonların hiçbiri I/O yapmaz; hangi karakteristiğe yazılacağına
// Engine karar verir.

// buildCommandPacket, komut kanalına yazılacak paketi oluşturur.
//
// Paket Formatı (1 + N byte):
//
//	[1B] opcode
//	[NB] komuta özgü argümanlar
func buildCommandPacket(op Opcode, payload ...byte) []byte {
	pkt := make([]byte, 1+len(payload))
	pkt[0] = byte(op)
	copy(pkt[1:], payload)
	return pkt
}

// buildFrameBeginPacket, kare aktarımı başlatma paketini oluşturur.
// Her iki alan da 1 byte'tır; FrameSequence kurulumu 255 kare sınırını
// garanti ettiği için burada değerler yalnızca byte'a indirgenir.
//
// Paket Formatı (toplam 3 byte):
//
//	[1B] opcode = 0x01 (OpFrameBegin)
//	[1B] kare index (0-255)
//	[1B] toplam kare sayısı (0-255)
func buildFrameBeginPacket(frameIndex, totalFrames int) []byte {
	return buildCommandPacket(OpFrameBegin, clampByte(frameIndex), clampByte(totalFrames))
}

// buildClockPacket, saat yapılandırma kanalına yazılacak paketi oluşturur.
//
// Paket Formatı (toplam 5 byte):
//
//	[4B] Unix epoch saniye (BE)
//	[1B] bayraklar: bit0=24 saat, bit1=saniye göster, bit2=tarih göster
func buildClockPacket(t time.Time, use24Hour, showSeconds, showDate bool) []byte {
	pkt := make([]byte, 5)
	binary.BigEndian.PutUint32(pkt[0:4], uint32(t.Unix()))

	var flags byte
	if use24Hour {
		flags |= 1 << 0
	}
	if showSeconds {
		flags |= 1 << 1
	}
	if showDate {
		flags |= 1 << 2
	}
	pkt[4] = flags

	return pkt
}

// buildAnimMetaPacket, animasyon metadata kanalına yazılacak paketi oluşturur.
// Süreler kare sırasına göre dizilir ve [0, 65535] aralığına sıkıştırılır.
//
// Paket Formatı (toplam 1 + 2N byte):
//
//	[1B]  kare sayısı
//	[2NB] kare başına gösterim süresi, milisaniye (BE)
func buildAnimMetaPacket(durationsMs []int) []byte {
	pkt := make([]byte, 1+2*len(durationsMs))
	pkt[0] = clampByte(len(durationsMs))
	for i, d := range durationsMs {
		if d < 0 {
			d = 0
		}
		if d > 0xffff {
			d = 0xffff
		}
		binary.BigEndian.PutUint16(pkt[1+2*i:], uint16(d))
	}
	return pkt
}

// ─── Parçalama ──────────────────────────────────────────────────────────────────

// splitChunks, piksel verisini ardışık parçalara böler. Son parça daha kısa
// olabilir; parçaların birleşimi veriyi birebir yeniden oluşturur. Parçalar
// kopya değil, verinin üzerine dilimlerdir.
func splitChunks(data []byte, chunkSize int) [][]byte {
	if chunkSize <= 0 || len(data) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(data)+chunkSize-1)/chunkSize)
	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[offset:end])
	}
	return chunks
}

// ─── Yanıt Ayrıştırma ───────────────────────────────────────────────────────────

// parseStatus, durum kanalından gelen bildirimin ilk byte'ını ayrıştırır.
// Boş bildirimlerde ok=false döner; fazladan byte'lar yok sayılır.
func parseStatus(data []byte) (code StatusCode, ok bool) {
	if len(data) < 1 {
		return 0, false
	}
	return StatusCode(data[0]), true
}

// ─── Yardımcılar ────────────────────────────────────────────────────────────────

// clampByte, değeri [0, 255] aralığına sıkıştırıp byte'a dönüştürür.
func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 0xff {
		return 0xff
	}
	return byte(v)
}

// clampFrameDuration, kare gösterim süresini protokolün kabul ettiği
// [MinFrameDurationMs, MaxFrameDurationMs] aralığına sıkıştırır.
func clampFrameDuration(ms int) int {
	if ms < MinFrameDurationMs {
		return MinFrameDurationMs
	}
	if ms > MaxFrameDurationMs {
		return MaxFrameDurationMs
	}
	return ms
}
