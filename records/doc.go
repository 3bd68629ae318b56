// Package records é o store durável e append-only por trás de /upload e /download.
//
// Um arquivo do store é um cabeçalho de schema seguido de linhas com prefixo de
// tamanho:
//
//	"RGW1" | uvarint(len(schema)) | schema JSON (Avro canônico)
//	uvarint(len(linha)) | linha Avro binária
//	uvarint(len(linha)) | linha Avro binária
//	...
//
// Registros são validados contra o schema antes de qualquer escrita. Appends
// são serializados e terminam com fsync; um append que falha trunca o arquivo de
// volta para a última linha completa.
package records
