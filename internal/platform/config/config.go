// Package config reúne la configuración de una ejecución: valores por
// defecto, fichero opcional (YAML o JSON) y flags de la línea de comandos.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
	"scan-facts/internal/platform/netutil"
)

// Nombres de los flags que el fichero de configuración no puede pisar.
const (
	FlagParser    = "parser"
	FlagCommand   = "command"
	FlagHost      = "host"
	FlagFormat    = "format"
	FlagNewlines  = "newlines"
	FlagWorkers   = "workers"
	FlagVerbosity = "verbose"
	FlagLogJSON   = "log-json"
	FlagLogLevel  = "log-level"
	FlagNoColor   = "no-color"
	FlagDedupe    = "dedupe"
	FlagStrict    = "strict"
	FlagStripANSI = "strip-ansi"
	FlagScope     = "scope"
	FlagOutput    = "output"
	FlagMetrics   = "metrics"
	// FlagInputs no es un flag: representa los argumentos posicionales.
	FlagInputs = "inputs"
)

const (
	DefaultFormat   = "tsv"
	DefaultNewlines = "normalized"
	DefaultWorkers  = 4
	DefaultDedupe   = "off"
	fallbackHost    = "localhost"
)

type Config struct {
	Parser    string
	Command   string
	Host      string
	Format    string
	Newlines  string
	Workers   int
	Verbosity int
	LogJSON   bool
	LogLevel  string
	NoColor   bool
	Dedupe    string
	Strict    bool
	StripANSI bool
	Scope     string
	Output    string
	Metrics   string
	Inputs    []string
}

// FileConfig es el contenido de un fichero de configuración. Los campos
// ausentes quedan a nil y no cambian nada.
type FileConfig struct {
	Parser    *string     `json:"parser" yaml:"parser"`
	Command   *string     `json:"command" yaml:"command"`
	Host      *string     `json:"host" yaml:"host"`
	Format    *string     `json:"format" yaml:"format"`
	Newlines  *string     `json:"newlines" yaml:"newlines"`
	Workers   *int        `json:"workers" yaml:"workers"`
	Verbosity *int        `json:"verbosity" yaml:"verbosity"`
	LogJSON   *bool       `json:"log_json" yaml:"log_json"`
	LogLevel  *string     `json:"log_level" yaml:"log_level"`
	NoColor   *bool       `json:"no_color" yaml:"no_color"`
	Dedupe    *string     `json:"dedupe" yaml:"dedupe"`
	Strict    *bool       `json:"strict" yaml:"strict"`
	StripANSI *bool       `json:"strip_ansi" yaml:"strip_ansi"`
	Scope     *string     `json:"scope" yaml:"scope"`
	Output    *string     `json:"output" yaml:"output"`
	Metrics   *string     `json:"metrics" yaml:"metrics"`
	Inputs    *stringList `json:"inputs" yaml:"inputs"`
}

type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var aux []string
		if err := json.Unmarshal(trimmed, &aux); err != nil {
			return err
		}
		*s = cleanStringSlice(aux)
		return nil
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*s = cleanStringSlice(strings.Split(single, ","))
		return nil
	default:
		return errors.New("inputs debe ser un string o una lista")
	}
}

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		aux := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			aux = append(aux, node.Value)
		}
		*s = cleanStringSlice(aux)
		return nil
	case yaml.ScalarNode:
		*s = cleanStringSlice(strings.Split(value.Value, ","))
		return nil
	case yaml.MappingNode, yaml.DocumentNode:
		return errors.New("inputs debe ser un string o una lista")
	default:
		*s = nil
		return nil
	}
}

// Default devuelve la configuración por defecto. El host es el nombre de
// la máquina actual.
func Default() Config {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = fallbackHost
	}
	return Config{
		Host:      host,
		Format:    DefaultFormat,
		Newlines:  DefaultNewlines,
		Workers:   DefaultWorkers,
		Dedupe:    DefaultDedupe,
		StripANSI: true,
	}
}

// LoadFile lee un fichero de configuración. La extensión decide el formato;
// con una extensión desconocida se prueba YAML y después JSON.
func LoadFile(path string) (*FileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("el archivo de configuración %q no existe", path)
		}
		return nil, fmt.Errorf("no se pudo acceder al archivo de configuración %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("la ruta de configuración %q apunta a un directorio", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg FileConfig
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("no se pudo leer la configuración desde %q: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("no se pudo leer la configuración desde %q: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("no se pudo leer la configuración desde %q: %w", path, err)
			}
		}
	}

	return &cfg, nil
}

// ApplyFile copia en c los valores presentes en fc salvo los de flags que
// el usuario fijó explícitamente (changed devuelve true para ellos).
func (c *Config) ApplyFile(fc *FileConfig, changed func(name string) bool) {
	if fc == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	setString := func(dst *string, src *string, name string) {
		if src != nil && !changed(name) {
			*dst = strings.TrimSpace(*src)
		}
	}
	setBool := func(dst *bool, src *bool, name string) {
		if src != nil && !changed(name) {
			*dst = *src
		}
	}

	setString(&c.Parser, fc.Parser, FlagParser)
	setString(&c.Command, fc.Command, FlagCommand)
	setString(&c.Host, fc.Host, FlagHost)
	setString(&c.Format, fc.Format, FlagFormat)
	setString(&c.Newlines, fc.Newlines, FlagNewlines)
	setString(&c.Dedupe, fc.Dedupe, FlagDedupe)
	setString(&c.Scope, fc.Scope, FlagScope)
	setString(&c.Output, fc.Output, FlagOutput)
	setString(&c.LogLevel, fc.LogLevel, FlagLogLevel)
	setString(&c.Metrics, fc.Metrics, FlagMetrics)
	setBool(&c.LogJSON, fc.LogJSON, FlagLogJSON)
	setBool(&c.NoColor, fc.NoColor, FlagNoColor)
	setBool(&c.Strict, fc.Strict, FlagStrict)
	setBool(&c.StripANSI, fc.StripANSI, FlagStripANSI)

	if fc.Workers != nil && !changed(FlagWorkers) {
		c.Workers = *fc.Workers
	}
	if fc.Verbosity != nil && !changed(FlagVerbosity) {
		c.Verbosity = *fc.Verbosity
	}
	if fc.Inputs != nil && !changed(FlagInputs) {
		c.Inputs = cleanStringSlice([]string(*fc.Inputs))
	}
}

// Normalize recorta espacios y pone en minúsculas los valores enumerados.
func (c *Config) Normalize() {
	c.Parser = strings.TrimSpace(c.Parser)
	c.Command = strings.TrimSpace(c.Command)
	c.Host = strings.TrimSpace(c.Host)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Newlines = strings.ToLower(strings.TrimSpace(c.Newlines))
	c.Dedupe = strings.ToLower(strings.TrimSpace(c.Dedupe))
	c.Scope = strings.TrimSpace(c.Scope)
	c.Output = strings.TrimSpace(c.Output)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Metrics = strings.TrimSpace(c.Metrics)
	c.Inputs = cleanStringSlice(c.Inputs)
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Newlines == "" {
		c.Newlines = DefaultNewlines
	}
	if c.Dedupe == "" {
		c.Dedupe = DefaultDedupe
	}
}

// Validate comprueba la configuración y devuelve el primer problema como
// ConfigurationError.
func (c *Config) Validate() error {
	switch c.Format {
	case "tsv", "jsonl":
	default:
		return apperrors.NewConfigurationError(FlagFormat, c.Format, "formato desconocido", "Usa --format tsv o --format jsonl")
	}
	switch c.Newlines {
	case "normalized", "legacy":
	default:
		return apperrors.NewConfigurationError(FlagNewlines, c.Newlines, "modo desconocido",
			"Usa --newlines normalized (un hecho por línea) o --newlines legacy (bytes idénticos a los scripts originales)")
	}
	switch c.Dedupe {
	case "off", "exact", "bloom":
	default:
		return apperrors.NewConfigurationError(FlagDedupe, c.Dedupe, "modo de deduplicación desconocido", "Usa --dedupe off, exact o bloom")
	}
	if c.Workers < 1 {
		return apperrors.NewConfigurationError(FlagWorkers, fmt.Sprintf("%d", c.Workers), "debe ser al menos 1", "Usa --workers 4 o elimina el valor del fichero de configuración")
	}
	if c.Verbosity < 0 {
		return apperrors.NewConfigurationError(FlagVerbosity, fmt.Sprintf("%d", c.Verbosity), "no puede ser negativa", "Usa -v, -vv o -vvv")
	}
	if c.LogLevel != "" {
		if _, err := logx.ParseLevel(c.LogLevel); err != nil {
			return apperrors.NewConfigurationError(FlagLogLevel, c.LogLevel, "nivel de log desconocido", "Usa --log-level error, warn, info, debug o trace")
		}
	}
	if c.Host == "" {
		return apperrors.NewConfigurationError(FlagHost, "", "el host no puede estar vacío", "Usa --host con el nombre de la máquina donde se ejecutó el comando")
	}
	if c.Scope != "" && netutil.NewScope(c.Scope) == nil {
		return apperrors.NewConfigurationError(FlagScope, c.Scope, "no es un dominio, IP o CIDR válido", "Usa --scope example.com, --scope 10.0.0.5 o --scope 10.0.0.0/24")
	}
	return nil
}

func cleanStringSlice(values []string) []string {
	list := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}
