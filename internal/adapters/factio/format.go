// Package factio serializa hechos en TSV (normalizado o byte a byte como los
// scripts originales) y en JSONL, y los vuelve a leer para convertir entre
// formatos.
package factio

import (
	"fmt"
	"io"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/parsers"
)

// Format es el formato de salida.
type Format string

const (
	FormatTSV   Format = "tsv"
	FormatJSONL Format = "jsonl"
)

// NewlineMode decide qué se hace con los saltos de línea que los parsers
// conservan en los valores.
type NewlineMode string

const (
	// NewlinesNormalized elimina los saltos finales de cada token y termina
	// cada hecho con exactamente un "\n".
	NewlinesNormalized NewlineMode = "normalized"
	// NewlinesLegacy escribe los tokens tal cual y solo añade "\n" cuando el
	// parser no lo trae en sus valores.
	NewlinesLegacy NewlineMode = "legacy"
)

// ParseFormat interpreta el nombre de un formato.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTSV, FormatJSONL:
		return f, nil
	case "":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("formato desconocido %q (usa tsv o jsonl)", s)
	}
}

// ParseNewlineMode interpreta el nombre de un modo de saltos de línea.
func ParseNewlineMode(s string) (NewlineMode, error) {
	switch m := NewlineMode(strings.ToLower(strings.TrimSpace(s))); m {
	case NewlinesNormalized, NewlinesLegacy:
		return m, nil
	case "":
		return NewlinesNormalized, nil
	default:
		return "", fmt.Errorf("modo de saltos de línea desconocido %q (usa normalized o legacy)", s)
	}
}

// Writer escribe hechos en un destino con búfer.
type Writer interface {
	Write(fact.Fact) error
	Flush() error
}

// Reader lee hechos hasta devolver io.EOF.
type Reader interface {
	Read() (fact.Fact, error)
}

// NewWriter crea el writer de format sobre w. def puede ser nil (conversión
// entre formatos): entonces no hay parser en la cabecera JSONL y el modo
// legacy siempre termina los hechos con "\n".
func NewWriter(format Format, w io.Writer, mode NewlineMode, def *parsers.Definition) (Writer, error) {
	var (
		name string
		raw  bool
	)
	if def != nil {
		name, raw = def.Name, def.RawTerminator
	}
	switch format {
	case FormatTSV:
		return NewTSVWriter(w, mode, raw), nil
	case FormatJSONL:
		return NewJSONLWriter(w, mode, name), nil
	default:
		return nil, fmt.Errorf("formato desconocido %q", format)
	}
}

// NewReader crea el reader de format sobre r.
func NewReader(format Format, r io.Reader) (Reader, error) {
	switch format {
	case FormatTSV:
		return NewTSVReader(r), nil
	case FormatJSONL:
		return NewJSONLReader(r), nil
	default:
		return nil, fmt.Errorf("formato desconocido %q", format)
	}
}
