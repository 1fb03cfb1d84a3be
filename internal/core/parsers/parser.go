// Package parsers convierte la salida de texto de herramientas de seguridad
// en hechos. Cada parser es una máquina de estados explícita sobre un
// linestream.Stream y produce los hechos de forma perezosa.
package parsers

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

// Env es el contexto inmutable de una ejecución.
type Env struct {
	// Host es el nombre lógico de la máquina donde se ejecutó el comando;
	// los hechos sobre la máquina local se asocian a él.
	Host string
	// CommandLine es la línea de comando que produjo la salida.
	CommandLine string
}

// HostAddress clasifica el host configurado.
func (e Env) HostAddress() fact.Address {
	return fact.AddressOf(e.Host)
}

// Parser extrae hechos de un stream. Las líneas mal formadas se descartan
// y sin contexto suficiente no se emite nada.
type Parser interface {
	Name() string
	Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact]
}

// emitter adapta yield para que las máquinas de estados puedan comprobar
// si el consumidor dejó de pedir hechos.
type emitter struct {
	yield   func(fact.Fact) bool
	stopped bool
}

func (e *emitter) emit(f fact.Fact) bool {
	if e.stopped {
		return false
	}
	if !e.yield(f) {
		e.stopped = true
	}
	return !e.stopped
}

// splitFields parte s por espacios en blanco como mucho n veces. El resto
// conserva su espacio final; el espacio sobrante sin más campos se descarta.
// Con n < 0 no hay límite.
func splitFields(s string, n int) []string {
	if n < 0 {
		return strings.Fields(s)
	}
	var out []string
	i := 0
	for ; n > 0; n-- {
		i = skipSpace(s, i)
		if i == len(s) {
			return out
		}
		j := i
		for i < len(s) {
			r, size := utf8.DecodeRuneInString(s[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		out = append(out, s[j:i])
	}
	if i < len(s) {
		i = skipSpace(s, i)
		if i != len(s) {
			out = append(out, s[i:])
		}
	}
	return out
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

// isBlank indica si la línea solo contiene espacios. La cadena vacía no es
// blanca, igual que una línea inexistente.
func isBlank(line string) bool {
	return line != "" && strings.TrimSpace(line) == ""
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// skipPrefix descarta los n primeros bytes de s, o todo s si es más corto.
func skipPrefix(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}
