package app

import (
	"context"
	"io"

	"scan-facts/internal/adapters/factio"
	"scan-facts/internal/core/parsers"
	"scan-facts/internal/core/pipeline"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
)

// Filter reproduce el contrato de los scripts de filtrado: lee la captura
// de in, escribe TSV legacy en out y nunca falla por culpa del parser. Solo
// un parser desconocido o un error de escritura se devuelven.
func Filter(ctx context.Context, catalog *parsers.Catalog, name, host, commandLine string, in io.Reader, out io.Writer) error {
	def, ok := catalog.Lookup(name)
	if !ok {
		return apperrors.NewUnknownParserError(name, catalog.Names())
	}

	writer := factio.NewTSVWriter(out, factio.NewlinesLegacy, def.RawTerminator)
	opts := pipeline.Options{Env: parsers.Env{Host: host, CommandLine: commandLine}}

	stats, err := pipeline.Run(ctx, def, in, writer, opts)
	if apperrors.IsParserFailure(err) {
		logx.Error("filtro interrumpido", logx.Fields{"parser": def.Name, "error": err.Error()})
		return nil
	}
	if err != nil {
		return err
	}
	logx.Debug("filtro completado", logx.Fields{"parser": def.Name, "facts": stats.Facts})
	return nil
}

// Convert lee hechos en un formato y los escribe en otro. Devuelve cuántos
// hechos se convirtieron.
func Convert(from, to factio.Format, mode factio.NewlineMode, in io.Reader, out io.Writer) (int, error) {
	reader, err := factio.NewReader(from, in)
	if err != nil {
		return 0, err
	}
	writer, err := factio.NewWriter(to, out, mode, nil)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		f, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		if err := writer.Write(f); err != nil {
			return n, err
		}
		n++
	}
	return n, writer.Flush()
}
