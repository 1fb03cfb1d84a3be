// Package errors proporciona tipos de error mejorados con contexto y sugerencias
// para facilitar el debugging y mejorar la experiencia del usuario.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorWithSuggestion es un error que incluye una sugerencia para el usuario.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
	Context    map[string]string
}

func (e *ErrorWithSuggestion) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Suggestion != "" {
		b.WriteString("\n\n💡 Sugerencia: ")
		b.WriteString(e.Suggestion)
	}
	if len(e.Context) > 0 {
		b.WriteString("\n\nContexto:")
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  • %s: %s", k, e.Context[k])
		}
	}
	return b.String()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WithSuggestion envuelve un error con una sugerencia para el usuario.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
		Context:    make(map[string]string),
	}
}

// WithContext añade contexto adicional a un error.
func WithContext(err error, key, value string) error {
	if err == nil {
		return nil
	}

	// Si ya es un ErrorWithSuggestion, añadir el contexto
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		if suggErr.Context == nil {
			suggErr.Context = make(map[string]string)
		}
		suggErr.Context[key] = value
		return suggErr
	}

	// Crear un nuevo error con contexto
	newErr := &ErrorWithSuggestion{
		Err:     err,
		Context: map[string]string{key: value},
	}
	return newErr
}

// UnknownParserError se produce cuando se pide un parser que no está en el catálogo.
type UnknownParserError struct {
	Name  string
	Known []string
}

func (e *UnknownParserError) Error() string {
	return fmt.Sprintf("parser desconocido '%s'", e.Name)
}

// NewUnknownParserError crea un error mejorado para parsers inexistentes.
func NewUnknownParserError(name string, known []string) error {
	baseErr := &UnknownParserError{Name: name, Known: known}

	suggestion := "Lista los parsers disponibles con: scan-facts parsers"
	if len(known) > 0 {
		suggestion += "\nDisponibles: " + strings.Join(known, ", ")
	}

	err := WithSuggestion(baseErr, suggestion)
	return WithContext(err, "parser", name)
}

// NoParserMatchError indica que ninguna definición reconoce la línea de comando.
type NoParserMatchError struct {
	CommandLine string
}

func (e *NoParserMatchError) Error() string {
	return fmt.Sprintf("ningún parser reconoce el comando %q", truncate(e.CommandLine, 80))
}

// NewNoParserMatchError crea un error mejorado cuando la selección automática falla.
func NewNoParserMatchError(commandLine string) error {
	baseErr := &NoParserMatchError{CommandLine: commandLine}

	suggestion := "Indica el parser explícitamente con: --parser=<nombre>\n" +
		"O comprueba qué parsers coinciden con: scan-facts match \"<comando>\""

	err := WithSuggestion(baseErr, suggestion)
	return WithContext(err, "command", truncate(commandLine, 100))
}

// ParserFailureError representa un fallo inesperado de un parser recuperado
// en el límite del pipeline. Los hechos emitidos antes del fallo ya se escribieron.
type ParserFailureError struct {
	Parser string
	Line   int
	Cause  any
}

func (e *ParserFailureError) Error() string {
	return fmt.Sprintf("fallo inesperado en el parser %s cerca de la línea %d: %v", e.Parser, e.Line, e.Cause)
}

// Unwrap expone la causa cuando el pánico transportaba un error.
func (e *ParserFailureError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// NewParserFailureError crea un error mejorado para fallos recuperados.
func NewParserFailureError(parser string, line int, cause any) error {
	baseErr := &ParserFailureError{Parser: parser, Line: line, Cause: cause}

	suggestion := "Revisa la captura de entrada con -vvv para ver la última línea procesada\n" +
		"Usa --strict para que el fallo termine con código distinto de cero"

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "parser", parser)
	return WithContext(err, "line", fmt.Sprintf("%d", line))
}

// ConfigurationError representa un error de configuración.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuración inválida para '%s': %s", e.Field, e.Reason)
}

// NewConfigurationError crea un error mejorado para problemas de configuración.
func NewConfigurationError(field, value, reason, suggestion string) error {
	baseErr := &ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}

	err := WithSuggestion(baseErr, suggestion)
	err = WithContext(err, "field", field)
	if value != "" {
		err = WithContext(err, "value", value)
	}

	return err
}

// truncate limita una cadena a n caracteres, añadiendo "..." si es necesario.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// GetSuggestion extrae la sugerencia de un error si existe.
func GetSuggestion(err error) string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Suggestion
	}
	return ""
}

// GetContext extrae el contexto de un error si existe.
func GetContext(err error) map[string]string {
	var suggErr *ErrorWithSuggestion
	if errors.As(err, &suggErr) {
		return suggErr.Context
	}
	return nil
}

// IsUnknownParser verifica si un error es por un parser inexistente.
func IsUnknownParser(err error) bool {
	var target *UnknownParserError
	return errors.As(err, &target)
}

// IsNoParserMatch verifica si la selección automática de parser falló.
func IsNoParserMatch(err error) bool {
	var target *NoParserMatchError
	return errors.As(err, &target)
}

// IsParserFailure verifica si un error es un fallo recuperado de un parser.
func IsParserFailure(err error) bool {
	var target *ParserFailureError
	return errors.As(err, &target)
}

// IsConfiguration verifica si un error es de configuración.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
