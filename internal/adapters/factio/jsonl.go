package factio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"scan-facts/internal/core/fact"
)

// SchemaVersion es la versión del formato JSONL.
const SchemaVersion = "1.0"

// Header es la primera línea de un fichero JSONL de hechos.
type Header struct {
	Schema  string `json:"schema"`
	Parser  string `json:"parser,omitempty"`
	Run     string `json:"run"`
	Created int64  `json:"created"`
}

// JSONLWriter escribe una cabecera y después un objeto JSON por hecho. La
// cabecera se escribe con el primer hecho o, si no hay ninguno, al vaciar.
type JSONLWriter struct {
	buf           *bufio.Writer
	mode          NewlineMode
	header        Header
	headerWritten bool
}

// NewJSONLWriter crea un JSONLWriter con un identificador de ejecución nuevo.
func NewJSONLWriter(w io.Writer, mode NewlineMode, parser string) *JSONLWriter {
	return &JSONLWriter{
		buf:  bufio.NewWriterSize(w, 64*1024),
		mode: mode,
		header: Header{
			Schema:  SchemaVersion,
			Parser:  parser,
			Run:     uuid.NewString(),
			Created: time.Now().UTC().Unix(),
		},
	}
}

// Header devuelve la cabecera que escribe el writer.
func (w *JSONLWriter) Header() Header {
	return w.header
}

func (w *JSONLWriter) Write(f fact.Fact) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	if w.mode != NewlinesLegacy {
		f = f.Normalized()
	}
	return w.writeLine(f)
}

func (w *JSONLWriter) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *JSONLWriter) writeHeader() error {
	if w.headerWritten {
		return nil
	}
	w.headerWritten = true
	return w.writeLine(w.header)
}

func (w *JSONLWriter) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// JSONLReader lee hechos JSONL. La cabecera es opcional.
type JSONLReader struct {
	scanner *bufio.Scanner
	line    int
	header  *Header
}

// NewJSONLReader crea un JSONLReader sobre r.
func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &JSONLReader{scanner: scanner}
}

// Header devuelve la cabecera leída, o nil si todavía no se ha visto.
func (r *JSONLReader) Header() *Header {
	return r.header
}

func (r *JSONLReader) Read() (fact.Fact, error) {
	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if r.header == nil && isHeader(data) {
			var h Header
			if err := json.Unmarshal(data, &h); err != nil {
				return fact.Fact{}, fmt.Errorf("jsonl línea %d: %w", r.line, err)
			}
			r.header = &h
			continue
		}
		var f fact.Fact
		if err := json.Unmarshal(data, &f); err != nil {
			return fact.Fact{}, fmt.Errorf("jsonl línea %d: %w", r.line, err)
		}
		if f.Reach != fact.Remote && f.Reach != fact.Local {
			return fact.Fact{}, fmt.Errorf("jsonl línea %d: alcance desconocido %q", r.line, f.Reach)
		}
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return fact.Fact{}, err
	}
	return fact.Fact{}, io.EOF
}

func isHeader(data []byte) bool {
	var probe struct {
		Schema *string `json:"schema"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Schema != nil
}
