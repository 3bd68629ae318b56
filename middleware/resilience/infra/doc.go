// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Gate: estado de admissão (in-flight, backlog, drenagem) sob um único mutex
//   - Store: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: contadores de resultado
//   - IDGenerator: identificadores de pedido ordenáveis (UUIDv7)
package infra
