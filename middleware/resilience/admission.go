package resilience

import (
	"net/http"
	"time"

	"record-gateway/middleware/resilience/application"
	"record-gateway/middleware/resilience/domain"

	"github.com/rs/zerolog/hlog"
)

// AdmissionOptions configura Admission; Gate nil desliga a camada.
type AdmissionOptions struct {
	Gate domain.Gate
	// BacklogTimeout limita a espera no backlog do gate (0 = até o cliente desistir).
	BacklogTimeout time.Duration
	Stats          domain.StatsStore
}

// Admission limita os pedidos em voo. Pedidos recusados recebem 503 sem corpo
// e o handler seguinte não é chamado. A vaga é devolvida quando o handler
// seguinte retorna (sucesso, erro ou timeout).
func Admission(opts AdmissionOptions) func(next http.Handler) http.Handler {
	if opts.Gate == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	svc := application.AdmissionService{
		Gate:           opts.Gate,
		BacklogTimeout: opts.BacklogTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Admit(r.Context())
			if err != nil {
				o := domain.OutcomeOf(err)
				recordOutcome(opts.Stats, r, "", o)
				hlog.FromRequest(r).Warn().Str("outcome", o.String()).Msg("request shed")
				reject(w, err)
				return
			}
			defer release()

			recordOutcome(opts.Stats, r, "", domain.OutcomeAdmitted)
			next.ServeHTTP(w, r)
		})
	}
}
