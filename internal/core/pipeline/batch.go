package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/parsers"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
)

// Input es una captura de un lote.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type batchResult struct {
	facts   []fact.Fact
	stats   Stats
	failure error
}

// RunBatch procesa varias capturas con el mismo parser. Cada captura tiene
// su propio stream y su propio parser; hasta workers se procesan a la vez.
// La salida respeta el orden de inputs y la deduplicación se aplica en ese
// mismo orden, de modo que el resultado no depende de la planificación.
//
// Los fallos de parser no detienen el lote: se devuelven unidos al final.
// Un error de apertura o lectura cancela el resto.
func RunBatch(ctx context.Context, def *parsers.Definition, inputs []Input, w Writer, opts Options, workers int) (Stats, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]batchResult, len(inputs))
	perInput := opts
	perInput.Dedupe = nil

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			rc, err := in.Open()
			if err != nil {
				return fmt.Errorf("abriendo %s: %w", in.Name, err)
			}
			defer rc.Close()

			res := &results[i]
			res.stats, err = drain(gctx, def, rc, perInput, func(f fact.Fact) error {
				res.facts = append(res.facts, f)
				return nil
			})
			if apperrors.IsParserFailure(err) {
				res.failure = apperrors.WithContext(err, "input", in.Name)
				return nil
			}
			if err != nil {
				return fmt.Errorf("procesando %s: %w", in.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var (
		total    Stats
		failures []error
	)
	for i, res := range results {
		stats := res.stats
		for _, f := range res.facts {
			if opts.Dedupe != nil && opts.Dedupe.Seen(def.Name, f.Key()) {
				stats.Duplicates++
				stats.Facts--
				continue
			}
			if err := w.Write(f); err != nil {
				return total, fmt.Errorf("escribiendo hecho de %s: %w", inputs[i].Name, err)
			}
		}
		fields := statsFields(stats)
		fields["input"] = inputs[i].Name
		logx.LogParser(logx.LevelDebug, def.Name, "captura procesada", fields)
		if opts.OnInput != nil {
			opts.OnInput(inputs[i].Name, stats, res.failure)
		}

		total.Add(stats)
		if res.failure != nil {
			failures = append(failures, res.failure)
		}
	}
	if err := w.Flush(); err != nil {
		return total, fmt.Errorf("vaciando salida: %w", err)
	}
	return total, stderrors.Join(failures...)
}
