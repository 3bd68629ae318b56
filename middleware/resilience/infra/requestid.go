package infra

import (
	"github.com/google/uuid"
)

// IDGenerator gera identificadores de pedido UUIDv7.
//
// O texto canônico (hex minúsculo, largura fixa) ordena lexicograficamente pela
// hora de criação, e o google/uuid garante ordem não-decrescente dentro do
// processo mesmo com chamadas concorrentes no mesmo milissegundo.
type IDGenerator struct{}

func (IDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// só falha se o leitor de entropia falhar
		return uuid.NewString()
	}
	return id.String()
}
