package infra

import (
	"context"
	"sync"

	"record-gateway/middleware/resilience/domain"
)

// Gate guarda o estado de admissão atrás de um único mutex.
//
// Invariantes: 0 <= inFlight <= max; depois de BeginDrain inFlight só diminui.
// Vagas liberadas são transferidas direto para o primeiro da fila (FIFO), então
// um pedido que chega não fura o backlog.
type Gate struct {
	mu       sync.Mutex
	max      int
	backlog  int
	inFlight int
	waiters  []*waiter
	draining bool
	drained  chan struct{}
	closed   bool
}

type waiter struct {
	ready chan struct{}
	err   error
}

// NewGate cria um gate com capacidade `max` e até `backlog` pedidos esperando.
// backlog = 0 significa descarte imediato além de `max`.
func NewGate(max, backlog int) *Gate {
	if max <= 0 {
		panic("infra: gate max must be > 0")
	}
	if backlog < 0 {
		backlog = 0
	}
	return &Gate{max: max, backlog: backlog, drained: make(chan struct{})}
}

// TryAdmit implementa domain.Gate.
func (g *Gate) TryAdmit(ctx context.Context) (func(), error) {
	g.mu.Lock()
	if g.draining {
		g.mu.Unlock()
		return nil, domain.ErrUnavailable
	}
	if g.inFlight < g.max && len(g.waiters) == 0 {
		g.inFlight++
		g.mu.Unlock()
		return g.releaser(), nil
	}
	if len(g.waiters) >= g.backlog {
		g.mu.Unlock()
		return nil, domain.ErrOverloaded
	}
	w := &waiter{ready: make(chan struct{})}
	g.waiters = append(g.waiters, w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		if w.err != nil {
			return nil, w.err
		}
		return g.releaser(), nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	if g.removeWaiter(w) {
		g.mu.Unlock()
		return nil, domain.ErrOverloaded
	}
	g.mu.Unlock()

	// a vaga (ou a rejeição) chegou junto com o cancelamento
	<-w.ready
	if w.err != nil {
		return nil, w.err
	}
	g.release()
	return nil, domain.ErrOverloaded
}

func (g *Gate) releaser() func() {
	var once sync.Once
	return func() { once.Do(g.release) }
}

func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.draining && len(g.waiters) > 0 {
		w := g.waiters[0]
		g.waiters[0] = nil
		g.waiters = g.waiters[1:]
		close(w.ready)
		return
	}

	g.inFlight--
	g.closeIfDrainedLocked()
}

func (g *Gate) removeWaiter(w *waiter) bool {
	for i, cur := range g.waiters {
		if cur == w {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// BeginDrain implementa domain.Drainer. É idempotente.
func (g *Gate) BeginDrain() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.draining {
		return
	}
	g.draining = true
	for _, w := range g.waiters {
		w.err = domain.ErrUnavailable
		close(w.ready)
	}
	g.waiters = nil
	g.closeIfDrainedLocked()
}

func (g *Gate) closeIfDrainedLocked() {
	if g.draining && g.inFlight == 0 && !g.closed {
		g.closed = true
		close(g.drained)
	}
}

// Drained implementa domain.Drainer.
func (g *Gate) Drained() <-chan struct{} {
	return g.drained
}

// InFlight implementa domain.Drainer.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *Gate) Snapshot() domain.AdmissionSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.AdmissionSnapshot{
		InFlight: g.inFlight,
		Waiting:  len(g.waiters),
		Max:      g.max,
		Backlog:  g.backlog,
		Draining: g.draining,
	}
}
