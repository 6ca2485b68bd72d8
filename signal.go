package lumipanel

import "sync"

// ─── Yayın Akışları ─────────────────────────────────────────────────────────────
//
// signal, Manager ve Engine'in dışarıya açtığı çok aboneli akışların ortak
// gerçeklemesidir. Replay yapılmaz: yeni abone yalnızca gelecekteki
// değerleri görür; mevcut değer Manager/Engine üzerindeki senkron
// okuyucularla alınır. Yayın bloklamaz; tamponu dolu abonelerde değer düşer.

type signal[T any] struct {
	mu   sync.RWMutex
	subs map[*signalSub[T]]struct{}
}

type signalSub[T any] struct {
	ch chan T
}

func newSignal[T any]() *signal[T] {
	return &signal[T]{subs: make(map[*signalSub[T]]struct{})}
}

// subscribe, yeni bir abone kanalı ve aboneliği sonlandıran fonksiyonu döner.
// Sonlandırma fonksiyonu kanalı kapatır ve birden fazla kez çağrılabilir.
func (s *signal[T]) subscribe() (<-chan T, func()) {
	sub := &signalSub[T]{ch: make(chan T, 16)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, unsub
}

// publish, değeri tüm abonelere dağıtır. Kanalı dolu olan abone o değeri
// kaçırır; yavaş bir abone yayıncıyı durduramaz.
func (s *signal[T]) publish(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		select {
		case sub.ch <- v:
		default:
		}
	}
}
