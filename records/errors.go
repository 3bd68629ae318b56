package records

import "errors"

var (
	// ErrSchemaViolation: o registro não segue o schema. O arquivo não é tocado.
	ErrSchemaViolation = errors.New("record does not conform to schema")
	// ErrIOFailure: o arquivo não pôde ser aberto, escrito ou lido.
	ErrIOFailure = errors.New("record store i/o failure")
	// ErrCorruptData: os bytes gravados não decodificam sob o schema gravado.
	ErrCorruptData = errors.New("record store data is corrupt")
)
