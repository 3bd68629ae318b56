package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"record-gateway/middleware/resilience/domain"
)

// TimeoutService corre o trabalho contra um prazo.
//
// O cancelamento é cooperativo: no prazo o contexto do trabalho é cancelado e
// o resultado é descartado, mas a goroutine segue até o próximo ponto em que
// observa ctx.
type TimeoutService struct {
	Timeout time.Duration
}

// PanicError carrega um panic do trabalho para a goroutine que chamou Run.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic in guarded work: %v", p.Value)
}

// Run executa fn. Se Timeout <= 0, roda inline sem prazo.
// Devolve domain.ErrTimeout quando o prazo vence antes de fn terminar.
// Um panic em fn é repassado (re-panic) na goroutine de Run.
func (s TimeoutService) Run(ctx context.Context, fn func(ctx context.Context)) error {
	if s.Timeout <= 0 {
		fn(ctx)
		return nil
	}

	workCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	done := make(chan struct{})
	panicked := make(chan *PanicError, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				panicked <- &PanicError{Value: p, Stack: debug.Stack()}
			}
		}()
		fn(workCtx)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case p := <-panicked:
		panic(p)
	case <-workCtx.Done():
		if ctx.Err() != nil {
			// o cliente foi embora antes do prazo
			return ctx.Err()
		}
		return domain.ErrTimeout
	}
}
