package domain

import "context"

// Gate é o ponto único de verdade do estado de admissão (in-flight, limite,
// backlog e flag de drenagem).
//
// TryAdmit e o incremento são um passo atômico: dois pedidos concorrentes com
// in-flight = C-1 nunca são ambos admitidos. O release retornado deve ser
// chamado exatamente uma vez; chamadas extras são ignoradas.
type Gate interface {
	// TryAdmit admite imediatamente ou devolve ErrOverloaded/ErrUnavailable.
	// Se houver backlog configurado, espera na fila até ctx encerrar.
	TryAdmit(ctx context.Context) (release func(), err error)
}

// Drainer é o lado do Gate usado pelo coordenador de shutdown.
type Drainer interface {
	// BeginDrain liga a flag de drenagem. A partir daí nenhuma admissão nova
	// acontece e os pedidos que esperavam no backlog recebem ErrUnavailable.
	BeginDrain()
	// Drained fecha quando a drenagem começou e in-flight chegou a zero.
	Drained() <-chan struct{}
	InFlight() int
}

// AdmissionSnapshot é uma leitura consistente do estado de admissão.
type AdmissionSnapshot struct {
	InFlight int
	Waiting  int
	Max      int
	Backlog  int
	Draining bool
}
