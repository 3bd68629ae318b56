// Package domain define contratos e tipos de domínio para admissão, timeout,
// rate limit e estatísticas de resultado.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A tradução de resultados para status HTTP fica no pacote resilience.
package domain
