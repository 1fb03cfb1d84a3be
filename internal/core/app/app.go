// Package app orquesta una ejecución: resuelve el parser, abre entradas y
// salida, construye las opciones del pipeline y aplica la política de fallos.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"scan-facts/internal/adapters/factio"
	"scan-facts/internal/core/parsers"
	"scan-facts/internal/core/pipeline"
	"scan-facts/internal/platform/config"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
	"scan-facts/internal/platform/netutil"
)

// stdinName identifica la entrada estándar en la lista de entradas.
const stdinName = "-"

// Streams son la entrada y la salida por defecto de la ejecución.
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// Result resume una ejecución de parse.
type Result struct {
	Parser string
	Stats  pipeline.Stats
	// Failure es el fallo de parser tolerado cuando no se pidió --strict.
	Failure error
}

var (
	openInput = func(path string) (io.ReadCloser, error) {
		return os.Open(path)
	}
	createOutput = func(path string) (io.WriteCloser, error) {
		return os.Create(path)
	}
)

// ResolveParser elige la definición por nombre o, si no hay nombre, por la
// línea de comando.
func ResolveParser(catalog *parsers.Catalog, name, commandLine string) (*parsers.Definition, error) {
	if strings.TrimSpace(name) != "" {
		def, ok := catalog.Lookup(name)
		if !ok {
			return nil, apperrors.NewUnknownParserError(name, catalog.Names())
		}
		return def, nil
	}
	if strings.TrimSpace(commandLine) != "" {
		def, ok := catalog.Match(commandLine)
		if !ok {
			return nil, apperrors.NewNoParserMatchError(commandLine)
		}
		logx.Debug("parser elegido por la línea de comando", logx.Fields{"parser": def.Name, "command": commandLine})
		return def, nil
	}
	return nil, apperrors.NewConfigurationError(config.FlagParser, "", "no se indicó parser ni línea de comando",
		"Usa --parser <nombre> o --command \"<línea ejecutada>\"\nEjecuta 'scan-facts parsers' para ver los disponibles")
}

// Run ejecuta el parse descrito por cfg. cfg debe estar validada.
func Run(ctx context.Context, cfg *config.Config, catalog *parsers.Catalog, streams Streams) (Result, error) {
	def, err := ResolveParser(catalog, cfg.Parser, cfg.Command)
	if err != nil {
		return Result{}, err
	}
	result := Result{Parser: def.Name}

	format, err := factio.ParseFormat(cfg.Format)
	if err != nil {
		return result, apperrors.NewConfigurationError(config.FlagFormat, cfg.Format, err.Error(), "Usa --format tsv o --format jsonl")
	}
	mode, err := factio.ParseNewlineMode(cfg.Newlines)
	if err != nil {
		return result, apperrors.NewConfigurationError(config.FlagNewlines, cfg.Newlines, err.Error(), "Usa --newlines normalized o --newlines legacy")
	}
	dedupe, err := pipeline.ParseDedupeMode(cfg.Dedupe)
	if err != nil {
		return result, apperrors.NewConfigurationError(config.FlagDedupe, cfg.Dedupe, err.Error(), "Usa --dedupe off, exact o bloom")
	}

	inputs, err := batchInputs(cfg.Inputs, streams.In)
	if err != nil {
		return result, err
	}

	out, closeOut, err := openOutput(cfg.Output, streams.Out)
	if err != nil {
		return result, err
	}
	defer closeOut()

	writer, err := factio.NewWriter(format, out, mode, def)
	if err != nil {
		return result, err
	}

	opts := pipeline.Options{
		Env:       parsers.Env{Host: cfg.Host, CommandLine: cfg.Command},
		Scope:     netutil.NewScope(cfg.Scope),
		Dedupe:    pipeline.NewDeduplicator(dedupe),
		StripANSI: cfg.StripANSI,
	}

	metrics := newRunMetrics(def.Name)
	opts.OnInput = metrics.Record

	start := time.Now()
	if len(inputs) == 1 {
		result.Stats, err = runSingle(ctx, def, inputs[0], writer, opts)
		if err == nil || apperrors.IsParserFailure(err) {
			metrics.Record(inputs[0].Name, result.Stats, err)
		}
	} else {
		result.Stats, err = pipeline.RunBatch(ctx, def, inputs, writer, opts, cfg.Workers)
	}
	elapsed := time.Since(start)

	logRunMetrics(metrics, elapsed)
	if cfg.Metrics != "" && (err == nil || apperrors.IsParserFailure(err)) {
		if werr := writeRunMetricsReport(cfg.Metrics, metrics, elapsed); werr != nil {
			logx.Warn("no se pudo escribir el informe de métricas", logx.Fields{"path": cfg.Metrics, "error": werr.Error()})
		}
	}

	if apperrors.IsParserFailure(err) && !cfg.Strict {
		logx.Warn("el parser falló; la salida está incompleta", logx.Fields{"parser": def.Name, "error": err.Error()})
		result.Failure = err
		err = nil
	}
	if err != nil {
		return result, err
	}
	if err := closeOut(); err != nil {
		return result, err
	}

	logx.Info("extracción completada", logx.Fields{
		"parser":   def.Name,
		"inputs":   len(inputs),
		"lines":    result.Stats.Lines,
		"facts":    result.Stats.Facts,
		"filtered": result.Stats.Filtered,
		"dupes":    result.Stats.Duplicates,
		"elapsed":  logx.FormatDuration(elapsed),
	})
	return result, nil
}

func runSingle(ctx context.Context, def *parsers.Definition, in pipeline.Input, w pipeline.Writer, opts pipeline.Options) (pipeline.Stats, error) {
	rc, err := in.Open()
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("abriendo %s: %w", in.Name, err)
	}
	defer rc.Close()
	return pipeline.Run(ctx, def, rc, w, opts)
}

// batchInputs convierte las rutas en entradas; sin rutas se lee stdin.
// stdin solo puede aparecer una vez: dos lectores concurrentes se
// repartirían sus líneas.
func batchInputs(paths []string, stdin io.Reader) ([]pipeline.Input, error) {
	if len(paths) == 0 {
		paths = []string{stdinName}
	}
	inputs := make([]pipeline.Input, 0, len(paths))
	stdinUsed := false
	for _, path := range paths {
		if path == stdinName {
			if stdinUsed {
				return nil, apperrors.NewConfigurationError(config.FlagInputs, stdinName, "stdin aparece más de una vez",
					"Pasa \"-\" una sola vez o guarda la captura en un fichero")
			}
			stdinUsed = true
			inputs = append(inputs, pipeline.Input{Name: "stdin", Open: func() (io.ReadCloser, error) {
				return io.NopCloser(stdin), nil
			}})
			continue
		}
		inputs = append(inputs, pipeline.Input{Name: path, Open: func() (io.ReadCloser, error) {
			return openInput(path)
		}})
	}
	return inputs, nil
}

// openOutput abre el destino de los hechos. La función de cierre se puede
// llamar varias veces y siempre devuelve el resultado del primer cierre.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == stdinName {
		return fallback, func() error { return nil }, nil
	}
	f, err := createOutput(path)
	if err != nil {
		return nil, nil, apperrors.WithSuggestion(fmt.Errorf("no se pudo crear %s: %w", path, err),
			"Comprueba que el directorio existe y tiene permisos de escritura")
	}
	var (
		closed   bool
		closeErr error
	)
	return f, func() error {
		if !closed {
			closed = true
			if err := f.Close(); err != nil {
				closeErr = fmt.Errorf("cerrando %s: %w", path, err)
			}
		}
		return closeErr
	}, nil
}
