package records

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/hamba/avro/v2"
)

// Store é dono de um único arquivo append-only. Appends são exclusivos entre si
// e em relação a leitores; leitores rodam em paralelo entre si.
type Store struct {
	path string
	mu   sync.RWMutex
	// open abre o arquivo para escrita; trocado nos testes para injetar falhas.
	open func(path string) (storeFile, error)
}

// storeFile é o que Open e Append usam do *os.File.
type storeFile interface {
	io.Reader
	io.Seeker
	io.WriterAt
	io.Closer
	Sync() error
	Truncate(size int64) error
}

func openFile(path string) (storeFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Open abre o store em path, criando o arquivo com o cabeçalho se ele não
// existir ou estiver vazio.
func Open(path string) (*Store, error) {
	s := &Store{path: path, open: openFile}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIOFailure, path, err)
	}
	defer f.Close()

	if _, err := s.ensureHeader(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Path devolve o caminho do arquivo do store.
func (s *Store) Path() string { return s.path }

// Append valida rec e grava uma linha no fim do arquivo. Nada é escrito se a
// validação falhar. Em erro de escrita o arquivo volta ao tamanho anterior.
func (s *Store) Append(ctx context.Context, rec Record) (err error) {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(s.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIOFailure, s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrIOFailure, s.path, cerr)
		}
	}()

	schema, err := s.ensureHeader(f)
	if err != nil {
		return err
	}
	frame, err := encodeRow(schema, rec)
	if err != nil {
		return err
	}

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: seek %s: %w", ErrIOFailure, s.path, err)
	}
	if _, werr := f.WriteAt(frame, end); werr != nil {
		return s.rollback(f, end, werr)
	}
	if serr := f.Sync(); serr != nil {
		return s.rollback(f, end, serr)
	}
	return nil
}

// rollback descarta uma linha parcial.
func (s *Store) rollback(f storeFile, size int64, cause error) error {
	if terr := f.Truncate(size); terr != nil {
		return fmt.Errorf("%w: write %s: %w (truncate: %v)", ErrIOFailure, s.path, cause, terr)
	}
	_ = f.Sync()
	return fmt.Errorf("%w: write %s: %w", ErrIOFailure, s.path, cause)
}

// ensureHeader lê o schema gravado, ou grava o cabeçalho se o arquivo estiver
// vazio. Chamar com s.mu travado para escrita.
func (s *Store) ensureHeader(f storeFile) (avro.Schema, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek %s: %w", ErrIOFailure, s.path, err)
	}
	schema, err := readHeader(bufio.NewReader(f))
	if err == nil {
		return schema, nil
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}

	header := encodeHeader(Schema)
	if _, err := f.WriteAt(header, 0); err != nil {
		_ = f.Truncate(0)
		return nil, fmt.Errorf("%w: write header %s: %w", ErrIOFailure, s.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Truncate(0)
		return nil, fmt.Errorf("%w: sync header %s: %w", ErrIOFailure, s.path, err)
	}
	return Schema, nil
}

// ReadAll devolve todos os registros na ordem de escrita. Arquivo inexistente
// é um store vazio.
func (s *Store) ReadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return ReadFile(s.path)
}

// ReadFile lê um arquivo do store sem passar por um Store (usado pelo dump).
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIOFailure, path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	schema, err := readHeader(br)
	if errors.Is(err, io.EOF) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return readRows(br, schema)
}
