package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"scan-facts/internal/adapters/factio"
	"scan-facts/internal/core/app"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
)

// createFile abre el fichero de salida; los tests lo sustituyen.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func newConvertCommand(st *state) *cobra.Command {
	var (
		from, to, newlines, output string
	)
	cmd := &cobra.Command{
		Use:   "convert [fichero]",
		Short: "Convierte hechos entre TSV y JSONL",
		Args:  cobra.MaximumNArgs(1),
		Example: `  scan-facts convert --from tsv --to jsonl facts.tsv
  scan-facts parse -p nmap scan.txt | scan-facts convert --to jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.load(cmd, false); err != nil {
				return err
			}
			src, err := factio.ParseFormat(from)
			if err != nil {
				return apperrors.NewConfigurationError("from", from, err.Error(), "Usa --from tsv o --from jsonl")
			}
			dst, err := factio.ParseFormat(to)
			if err != nil {
				return apperrors.NewConfigurationError("to", to, err.Error(), "Usa --to tsv o --to jsonl")
			}
			mode, err := factio.ParseNewlineMode(newlines)
			if err != nil {
				return apperrors.NewConfigurationError("newlines", newlines, err.Error(), "Usa --newlines normalized o --newlines legacy")
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("abriendo %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			var (
				out  io.Writer = cmd.OutOrStdout()
				file io.WriteCloser
			)
			if output != "" && output != "-" {
				f, err := createFile(output)
				if err != nil {
					return fmt.Errorf("creando %s: %w", output, err)
				}
				file, out = f, f
			}

			n, err := app.Convert(src, dst, mode, in, out)
			if file != nil {
				if cerr := file.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("cerrando %s: %w", output, cerr)
				}
			}
			if err != nil {
				return err
			}
			logx.Info("conversión completada", logx.Fields{"from": string(src), "to": string(dst), "facts": n})
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "tsv", "Formato de entrada: tsv o jsonl")
	cmd.Flags().StringVar(&to, "to", "jsonl", "Formato de salida: tsv o jsonl")
	cmd.Flags().StringVar(&newlines, "newlines", "normalized", "Saltos de línea de la salida: normalized o legacy")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Fichero de salida (por defecto stdout)")
	return cmd
}
