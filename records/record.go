package records

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hamba/avro/v2"
)

//go:embed record.avsc
var schemaJSON string

// Schema é o schema Avro com que todo registro é gravado.
var Schema = avro.MustParse(schemaJSON)

// Record é a unidade de dado durável. Content é ponteiro para distinguir um
// payload sem o campo de um que manda string vazia.
type Record struct {
	Content *string `json:"content" validate:"required"`
}

// NewRecord monta um Record válido.
func NewRecord(content string) Record {
	return Record{Content: &content}
}

// Text devolve o conteúdo, ou "" quando ausente.
func (r Record) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// row é o formato do Record do lado Avro.
type row struct {
	Content string `avro:"content"`
}

var validate = validator.New()

// Validate confere r contra o schema.
func (r Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
}

func (r Record) toRow() row { return row{Content: r.Text()} }

func (w row) toRecord() Record { return NewRecord(w.Content) }
