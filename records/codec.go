package records

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/hamba/avro/v2"
)

var magic = []byte("RGW1")

const (
	maxSchemaSize = 1 << 20
	maxRowSize    = 16 << 20
)

// encodeHeader devolve o cabeçalho de um arquivo novo.
func encodeHeader(s avro.Schema) []byte {
	text := s.String()
	buf := make([]byte, 0, len(magic)+binary.MaxVarintLen64+len(text))
	buf = append(buf, magic...)
	buf = binary.AppendUvarint(buf, uint64(len(text)))
	return append(buf, text...)
}

// encodeRow serializa um registro já validado sob s, com prefixo de tamanho.
func encodeRow(s avro.Schema, rec Record) ([]byte, error) {
	payload, err := avro.Marshal(s, rec.toRow())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	frame := make([]byte, 0, binary.MaxVarintLen64+len(payload))
	frame = binary.AppendUvarint(frame, uint64(len(payload)))
	return append(frame, payload...), nil
}

// readHeader lê o cabeçalho e devolve o schema gravado.
// Um arquivo vazio devolve (nil, io.EOF).
func readHeader(r *bufio.Reader) (avro.Schema, error) {
	got := make([]byte, len(magic))
	n, err := io.ReadFull(r, got)
	if n == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, readErr(err, "header")
	}
	if !bytes.Equal(got, magic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptData, got)
	}

	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, readErr(err, "schema length")
	}
	if size == 0 || size > maxSchemaSize {
		return nil, fmt.Errorf("%w: schema length %d", ErrCorruptData, size)
	}
	text := make([]byte, size)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, readErr(err, "schema")
	}
	return parseStored(string(text))
}

// parseStored reaproveita Schema quando o texto gravado é o atual; senão faz o
// parse num cache próprio para não poluir o cache global do avro.
func parseStored(text string) (avro.Schema, error) {
	if text == Schema.String() {
		return Schema, nil
	}
	s, err := avro.ParseWithCache(text, "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("%w: stored schema: %w", ErrCorruptData, err)
	}
	return s, nil
}

// readRows decodifica linhas até EOF, na ordem em que foram gravadas.
func readRows(r *bufio.Reader, s avro.Schema) ([]Record, error) {
	out := []Record{}
	for i := 0; ; i++ {
		size, err := binary.ReadUvarint(r)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, readErr(err, fmt.Sprintf("row %d length", i))
		}
		if size > maxRowSize {
			return nil, fmt.Errorf("%w: row %d length %d", ErrCorruptData, i, size)
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, readErr(err, fmt.Sprintf("row %d", i))
		}

		var w row
		if err := avro.Unmarshal(s, payload, &w); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptData, i, err)
		}
		out = append(out, w.toRecord())
	}
}

// readErr separa falha de leitura (I/O) de arquivo truncado ou malformado.
func readErr(err error, what string) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: read %s: %w", ErrIOFailure, what, err)
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %s: %w", ErrCorruptData, what, err)
}
