// Package linestream ofrece un cursor de líneas con una línea de retroceso,
// sobre el que se construyen todos los parsers de salida de herramientas.
package linestream

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"regexp"
	"strings"
)

// ErrPushbackOverflow se produce al devolver una línea cuando ya hay otra
// pendiente. Es un error de programación, no de la entrada.
var ErrPushbackOverflow = errors.New("linestream: ya hay una línea pendiente")

// Option ajusta un Stream en su construcción.
type Option func(*Stream)

// WithTransform aplica fn a cada línea leída de la fuente antes de
// entregarla. Las líneas devueltas con PushBack no se vuelven a transformar.
func WithTransform(fn func(string) string) Option {
	return func(s *Stream) {
		s.transform = fn
	}
}

// Stream es un cursor pull sobre las líneas de un io.Reader. Cada línea
// conserva su terminador; el último fragmento sin salto se entrega tal cual.
// No es seguro para uso concurrente.
type Stream struct {
	reader    *bufio.Reader
	transform func(string) string

	pending    string
	hasPending bool

	eof   bool
	err   error
	count int
}

// New crea un Stream sobre r.
func New(r io.Reader, opts ...Option) *Stream {
	s := &Stream{reader: bufio.NewReaderSize(r, 64*1024)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromString crea un Stream sobre un texto en memoria.
func FromString(text string, opts ...Option) *Stream {
	return New(strings.NewReader(text), opts...)
}

// read obtiene la siguiente línea de la fuente, ignorando el hueco pendiente.
func (s *Stream) read() (string, bool) {
	if s.eof {
		return "", false
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.eof = true
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		if line == "" {
			return "", false
		}
	}
	s.count++
	if s.transform != nil {
		line = s.transform(line)
	}
	return line, true
}

// Next devuelve la siguiente línea, consumiendo primero la pendiente.
func (s *Stream) Next() (string, bool) {
	if s.hasPending {
		line := s.pending
		s.pending, s.hasPending = "", false
		return line, true
	}
	return s.read()
}

// Peek devuelve la siguiente línea sin consumirla, o "" al final de la
// entrada. La línea observada queda pendiente, así que un PushBack posterior
// sin Next intermedio provoca ErrPushbackOverflow.
func (s *Stream) Peek() string {
	if s.hasPending {
		return s.pending
	}
	line, ok := s.read()
	if !ok {
		return ""
	}
	s.pending, s.hasPending = line, true
	return line
}

// HasMore indica si Peek devolvería contenido.
func (s *Stream) HasMore() bool {
	return s.Peek() != ""
}

// PushBack devuelve una línea al frente del stream. La profundidad es una
// línea: si ya hay otra pendiente, entra en pánico con ErrPushbackOverflow.
func (s *Stream) PushBack(line string) {
	if s.hasPending {
		panic(ErrPushbackOverflow)
	}
	s.pending, s.hasPending = line, true
}

// FindUntil consume líneas hasta que pred se cumple y devuelve esa línea.
// Devuelve false si la entrada se agota antes.
func (s *Stream) FindUntil(pred func(string) bool) (string, bool) {
	for {
		line, ok := s.Next()
		if !ok {
			return "", false
		}
		if pred(line) {
			return line, true
		}
	}
}

// Search consume líneas hasta que re encuentra coincidencia en alguna y
// devuelve la coincidencia con sus grupos. Los grupos que no participan
// quedan como "".
func (s *Stream) Search(re *regexp.Regexp) ([]string, bool) {
	for {
		line, ok := s.Next()
		if !ok {
			return nil, false
		}
		if m := re.FindStringSubmatch(line); m != nil {
			return m, true
		}
	}
}

// All recorre las líneas restantes consumiéndolas. Se puede cortar el bucle
// y seguir usando el Stream después.
func (s *Stream) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, ok := s.Next()
			if !ok || !yield(line) {
				return
			}
		}
	}
}

// LinesRead cuenta las líneas leídas de la fuente.
func (s *Stream) LinesRead() int {
	return s.count
}

// Err devuelve el error de lectura distinto de EOF, si lo hubo.
func (s *Stream) Err() error {
	return s.err
}
