package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// InputSanitizer limpia las líneas capturadas antes de que las vea un
// parser: secuencias de escape ANSI, caracteres de control y bytes UTF-8
// inválidos. Tabuladores y terminadores de línea se conservan.
type InputSanitizer struct {
	ansiCSI      *regexp.Regexp
	ansiOSC      *regexp.Regexp
	controlChars *regexp.Regexp
}

// NewInputSanitizer crea un sanitizador con la configuración por defecto.
func NewInputSanitizer() *InputSanitizer {
	return &InputSanitizer{
		// CSI: colores, movimiento de cursor, borrado de línea
		ansiCSI: regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`),
		// OSC: títulos de terminal e hipervínculos
		ansiOSC: regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`),
		// Control characters (excepto \t, \n, \r)
		controlChars: regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`),
	}
}

// SanitizeLine devuelve line sin escapes ni caracteres de control.
func (s *InputSanitizer) SanitizeLine(line string) string {
	if line == "" {
		return line
	}
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "")
	}
	if strings.IndexByte(line, 0x1b) >= 0 {
		line = s.ansiOSC.ReplaceAllString(line, "")
		line = s.ansiCSI.ReplaceAllString(line, "")
	}
	if s.controlChars.MatchString(line) {
		line = s.controlChars.ReplaceAllString(line, "")
	}
	return line
}
