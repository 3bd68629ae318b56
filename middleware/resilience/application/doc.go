// Package application contém os casos de uso da camada de resiliência:
// admissão, corrida contra prazo, rate limit e drenagem no shutdown.
//
// Ele depende apenas do pacote domain e não conhece net/http.
package application
