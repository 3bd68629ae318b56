package application

import (
	"context"
	"time"

	"record-gateway/middleware/resilience/domain"
)

// AdmissionService concentra a regra de admissão, sem saber nada sobre HTTP.
type AdmissionService struct {
	Gate domain.Gate
	// BacklogTimeout limita quanto tempo um pedido espera no backlog.
	// <= 0 espera até ctx encerrar.
	BacklogTimeout time.Duration
}

// Admit tenta admitir o pedido. Se err != nil nenhuma vaga foi ocupada e o
// handler não deve rodar.
func (s AdmissionService) Admit(ctx context.Context) (func(), error) {
	if s.Gate == nil {
		return func() {}, nil
	}
	if s.BacklogTimeout <= 0 {
		return s.Gate.TryAdmit(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.BacklogTimeout)
	defer cancel()
	return s.Gate.TryAdmit(waitCtx)
}
