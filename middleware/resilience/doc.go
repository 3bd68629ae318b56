// Package resilience fornece adapters HTTP (net/http) para o pipeline de admissão
// do record-gateway.
//
// Visão geral (camadas):
//
//   - domain: contratos, resultados e erros sentinela (sem net/http)
//   - application: casos de uso (admitir, correr contra prazo, rate limit, drenar)
//   - infra: implementações concretas (gate, token bucket, stats, request id)
//   - resilience (este pacote): middlewares HTTP + tradução para status/headers
//
// Ordem de um pedido:
//
//  1. RequestID marca o pedido (header x-request-id e logger do pedido)
//  2. RateLimit (opcional) responde 429 se o cliente estourou o bucket
//  3. Admission admite ou responde 503 (overloaded / draining)
//  4. Timeout, por rota, responde 408 se o handler passar do prazo
//  5. o handler da rota roda
package resilience
