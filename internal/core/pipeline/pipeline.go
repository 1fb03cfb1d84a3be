// Package pipeline conecta una captura de texto con un parser: sanea las
// líneas, aplica el scope y la deduplicación, escribe los hechos y convierte
// los fallos inesperados del parser en errores tipados.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/core/parsers"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
	"scan-facts/internal/platform/netutil"
)

// Writer recibe los hechos aceptados de una ejecución.
type Writer interface {
	Write(fact.Fact) error
	Flush() error
}

// Options es la configuración inmutable de una ejecución.
type Options struct {
	Env parsers.Env
	// Scope descarta hechos remotos fuera del objetivo. nil no filtra.
	Scope *netutil.Scope
	// Dedupe suprime hechos repetidos. nil no deduplica.
	Dedupe    Deduplicator
	StripANSI bool
	// OnInput, si no es nil, recibe el resumen de cada captura de un lote
	// en el orden de entrada.
	OnInput func(name string, stats Stats, failure error)
}

// Stats resume una ejecución.
type Stats struct {
	Lines      int
	Facts      int
	Filtered   int
	Duplicates int
	Duration   time.Duration
}

// Add acumula other en s.
func (s *Stats) Add(other Stats) {
	s.Lines += other.Lines
	s.Facts += other.Facts
	s.Filtered += other.Filtered
	s.Duplicates += other.Duplicates
	s.Duration += other.Duration
}

// Run ejecuta def sobre r y escribe los hechos en w. Un pánico del parser
// detiene la extracción y se devuelve como ParserFailureError; lo ya escrito
// se conserva. El desbordamiento del retroceso de línea no se recupera.
func Run(ctx context.Context, def *parsers.Definition, r io.Reader, w Writer, opts Options) (Stats, error) {
	stats, err := drain(ctx, def, r, opts, w.Write)
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("vaciando salida: %w", flushErr)
	}
	logx.LogParser(logx.LevelDebug, def.Name, "extracción terminada", statsFields(stats))
	return stats, err
}

// drain saca los hechos del parser y entrega a emit los que pasan el scope
// y la deduplicación.
func drain(ctx context.Context, def *parsers.Definition, r io.Reader, opts Options, emit func(fact.Fact) error) (stats Stats, err error) {
	start := time.Now()

	var streamOpts []linestream.Option
	if opts.StripANSI {
		streamOpts = append(streamOpts, linestream.WithTransform(NewInputSanitizer().SanitizeLine))
	}
	ls := linestream.New(r, streamOpts...)

	defer func() {
		stats.Lines = ls.LinesRead()
		stats.Duration = time.Since(start)

		rec := recover()
		if rec == nil {
			return
		}
		if e, ok := rec.(error); ok && stderrors.Is(e, linestream.ErrPushbackOverflow) {
			panic(rec)
		}
		logx.LogParser(logx.LevelError, def.Name, "fallo inesperado, se descarta el resto de la captura", logx.Fields{
			"line":  stats.Lines,
			"cause": fmt.Sprint(rec),
		})
		err = apperrors.NewParserFailureError(def.Name, stats.Lines, rec)
	}()

	for f := range def.Parser.Parse(ls, opts.Env) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		if !inScope(opts.Scope, f) {
			stats.Filtered++
			continue
		}
		if opts.Dedupe != nil && opts.Dedupe.Seen(def.Name, f.Key()) {
			stats.Duplicates++
			continue
		}
		if err := emit(f); err != nil {
			return stats, fmt.Errorf("escribiendo hecho: %w", err)
		}
		stats.Facts++
	}

	if readErr := ls.Err(); readErr != nil {
		return stats, fmt.Errorf("leyendo captura: %w", readErr)
	}
	return stats, ctx.Err()
}

// inScope acepta siempre los hechos sobre la máquina local.
func inScope(scope *netutil.Scope, f fact.Fact) bool {
	if scope == nil || f.Reach == fact.Local || f.HostLocal() {
		return true
	}
	return scope.Allows(f.Address.Kind, f.Address.Value)
}

func statsFields(s Stats) logx.Fields {
	return logx.Fields{
		"lines":      s.Lines,
		"facts":      s.Facts,
		"filtered":   s.Filtered,
		"duplicates": s.Duplicates,
		"duration":   logx.FormatDuration(s.Duration),
	}
}
