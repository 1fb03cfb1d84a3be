package factio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/platform/netutil"
)

const maxLineSize = 1024 * 1024

// TSVWriter escribe un hecho por línea con los tokens separados por tabuladores.
type TSVWriter struct {
	buf  *bufio.Writer
	mode NewlineMode
	// raw indica que el parser ya termina sus hechos con el salto de línea
	// de la fuente (solo afecta al modo legacy).
	raw bool
}

// NewTSVWriter crea un TSVWriter sobre w.
func NewTSVWriter(w io.Writer, mode NewlineMode, rawTerminator bool) *TSVWriter {
	return &TSVWriter{buf: bufio.NewWriterSize(w, 64*1024), mode: mode, raw: rawTerminator}
}

func (w *TSVWriter) Write(f fact.Fact) error {
	if w.mode == NewlinesLegacy {
		if _, err := w.buf.WriteString(strings.Join(f.Tokens(), "\t")); err != nil {
			return err
		}
		if w.raw {
			return nil
		}
		return w.buf.WriteByte('\n')
	}
	if _, err := w.buf.WriteString(f.String()); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

func (w *TSVWriter) Flush() error {
	return w.buf.Flush()
}

// TSVReader lee TSV normalizado. El texto no distingue etiquetas sin valor
// de pares clave/valor: los tokens se agrupan de dos en dos, la etiqueta
// "local" tras la dirección de un hecho remoto y un token final suelto se
// leen como etiquetas. Las demás etiquetas se leen como claves. Para una
// conversión sin pérdidas usa JSONL.
type TSVReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewTSVReader crea un TSVReader sobre r.
func NewTSVReader(r io.Reader) *TSVReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &TSVReader{scanner: scanner}
}

func (r *TSVReader) Read() (fact.Fact, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		f, err := parseTSV(strings.Split(text, "\t"))
		if err != nil {
			return fact.Fact{}, fmt.Errorf("tsv línea %d: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return fact.Fact{}, err
	}
	return fact.Fact{}, io.EOF
}

func parseTSV(tokens []string) (fact.Fact, error) {
	if len(tokens) < 3 {
		return fact.Fact{}, fmt.Errorf("se esperaban al menos 3 campos, hay %d", len(tokens))
	}
	reach := fact.Reach(tokens[0])
	if reach != fact.Remote && reach != fact.Local {
		return fact.Fact{}, fmt.Errorf("alcance desconocido %q", tokens[0])
	}
	f := fact.Fact{
		Reach:   reach,
		Address: fact.Address{Kind: netutil.Kind(tokens[1]), Value: tokens[2]},
	}
	rest := tokens[3:]
	if reach == fact.Remote && len(rest) > 0 && rest[0] == string(fact.Local) {
		f.Path = append(f.Path, fact.Label(string(fact.Local)))
		rest = rest[1:]
	}
	for len(rest) >= 2 {
		f.Path = append(f.Path, fact.KV(rest[0], rest[1]))
		rest = rest[2:]
	}
	if len(rest) == 1 {
		f.Path = append(f.Path, fact.Label(rest[0]))
	}
	return f, nil
}
