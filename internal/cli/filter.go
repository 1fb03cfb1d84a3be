package cli

import (
	"github.com/spf13/cobra"

	"scan-facts/internal/core/app"
)

func newFilterCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <parser> [host] [línea-de-comando]",
		Short: "Filtro stdin → stdout compatible con los scripts de filtrado",
		Long: `Lee la salida de la herramienta por stdin y escribe los hechos en TSV con los
mismos bytes que los scripts de filtrado originales. Un fallo del parser se
registra en stderr pero el código de salida es 0.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.load(cmd, false); err != nil {
				return err
			}
			host := st.cfg.Host
			if len(args) > 1 && args[1] != "" {
				host = args[1]
			}
			commandLine := ""
			if len(args) > 2 {
				commandLine = args[2]
			}
			return app.Filter(cmd.Context(), st.catalog, args[0], host, commandLine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
