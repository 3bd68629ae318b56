package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"record-gateway/middleware/resilience/domain"
)

// ErrDrainDeadline indica que o prazo de graça venceu com pedidos ainda em voo.
var ErrDrainDeadline = errors.New("drain deadline exceeded with requests in flight")

// Server é o mínimo do *http.Server que a drenagem usa.
type Server interface {
	Shutdown(ctx context.Context) error
	Close() error
}

// DrainService é o coordenador de shutdown: liga a drenagem no gate, espera
// in-flight chegar a zero ou o prazo de graça vencer, e então encerra o servidor.
type DrainService struct {
	Gate   domain.Drainer
	Server Server
	Grace  time.Duration
	// OnAbandon é chamado quando o prazo vence com pedidos em voo.
	OnAbandon func(inFlight int)
}

// Drain bloqueia até o servidor estar encerrado.
// Retorna ErrDrainDeadline se pedidos foram abandonados.
func (s DrainService) Drain(ctx context.Context) error {
	s.Gate.BeginDrain()

	grace := s.Grace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	// um único prazo cobre a espera pelos pedidos e o Shutdown
	deadlineAt := time.Now().Add(grace)
	deadline := time.NewTimer(grace)
	defer deadline.Stop()

	select {
	case <-s.Gate.Drained():
		if s.Server == nil {
			return nil
		}
		// sem pedidos admitidos; Shutdown fecha listeners e conexões restantes
		shutdownCtx, cancel := context.WithDeadline(ctx, deadlineAt)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			_ = s.Server.Close()
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrDrainDeadline, err)
			}
			return err
		}
		return nil
	case <-deadline.C:
	case <-ctx.Done():
	}

	if s.OnAbandon != nil {
		s.OnAbandon(s.Gate.InFlight())
	}
	if s.Server != nil {
		_ = s.Server.Close()
	}
	return ErrDrainDeadline
}
