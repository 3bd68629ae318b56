package domain

import (
	"errors"
	"fmt"
)

// Erros sentinela da camada de resiliência. Use errors.Is para classificar.
var (
	// ErrOverloaded indica que o limite de concorrência (e o backlog) estava cheio.
	ErrOverloaded = errors.New("admission denied: overloaded")
	// ErrUnavailable indica que o processo está drenando para shutdown.
	ErrUnavailable = errors.New("admission denied: draining")
	// ErrTimeout indica que o handler passou do prazo configurado.
	ErrTimeout = errors.New("handler exceeded deadline")
	// ErrRateLimited indica que o token bucket do cliente está vazio.
	ErrRateLimited = errors.New("rate limited")
)

// Outcome é o resultado final de um pedido do ponto de vista da resiliência.
type Outcome int

const (
	OutcomeAdmitted Outcome = iota
	OutcomeOverloaded
	OutcomeUnavailable
	OutcomeTimeout
	OutcomeRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdmitted:
		return "admitted"
	case OutcomeOverloaded:
		return "overloaded"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// OutcomeOf classifica um erro da camada de resiliência.
// Erros desconhecidos (ou nil) são tratados como admitidos.
func OutcomeOf(err error) Outcome {
	switch {
	case errors.Is(err, ErrOverloaded):
		return OutcomeOverloaded
	case errors.Is(err, ErrUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	default:
		return OutcomeAdmitted
	}
}
