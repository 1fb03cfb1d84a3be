package cli

import (
	"github.com/spf13/cobra"

	"scan-facts/internal/core/app"
	"scan-facts/internal/platform/config"
)

func newParseCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [capturas...]",
		Short: "Extrae hechos de una o varias capturas",
		Long: `Extrae hechos de la salida de una herramienta. Sin capturas se lee stdin;
"-" también representa stdin. Con varias capturas se procesan en paralelo y la
salida respeta el orden de los argumentos.

El parser se elige con --parser o, si no se indica, a partir de la línea de
comando pasada con --command.`,
		Example: `  nmap -sV 10.0.0.5 | scan-facts parse -c "nmap -sV 10.0.0.5"
  scan-facts parse -p nikto --format jsonl nikto-*.txt
  scan-facts parse -p find --host web01 --dedupe suid.txt
  scan-facts parse -p nmap --dedupe=bloom scans/*.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				st.cfg.Inputs = args
			}
			if err := st.load(cmd, len(args) > 0); err != nil {
				return err
			}
			if err := st.cfg.Validate(); err != nil {
				return err
			}
			_, err := app.Run(cmd.Context(), &st.cfg, st.catalog, app.Streams{
				In:  cmd.InOrStdin(),
				Out: cmd.OutOrStdout(),
			})
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&st.cfg.Parser, config.FlagParser, "p", "", "Parser a usar (ver 'scan-facts parsers')")
	f.StringVarP(&st.cfg.Command, config.FlagCommand, "c", "", "Línea de comando que produjo la salida")
	f.StringVar(&st.cfg.Host, config.FlagHost, st.cfg.Host, "Máquina donde se ejecutó el comando")
	f.StringVar(&st.cfg.Format, config.FlagFormat, st.cfg.Format, "Formato de salida: tsv o jsonl")
	f.StringVar(&st.cfg.Newlines, config.FlagNewlines, st.cfg.Newlines, "Saltos de línea: normalized o legacy")
	f.IntVar(&st.cfg.Workers, config.FlagWorkers, st.cfg.Workers, "Capturas procesadas en paralelo")
	f.StringVar(&st.cfg.Dedupe, config.FlagDedupe, st.cfg.Dedupe, "Deduplicación: off, exact o bloom; sin valor equivale a exact. El modo va con '=' (--dedupe=bloom), separado se toma como captura")
	f.Lookup(config.FlagDedupe).NoOptDefVal = "exact"
	f.BoolVar(&st.cfg.Strict, config.FlagStrict, false, "Termina con error si un parser falla")
	f.BoolVar(&st.cfg.StripANSI, config.FlagStripANSI, st.cfg.StripANSI, "Elimina secuencias ANSI y caracteres de control")
	f.StringVar(&st.cfg.Scope, config.FlagScope, "", "Descarta hechos remotos fuera de este dominio, IP o CIDR")
	f.StringVarP(&st.cfg.Output, config.FlagOutput, "o", "", "Fichero de salida (por defecto stdout)")
	f.StringVar(&st.cfg.Metrics, config.FlagMetrics, "", "Escribe un informe JSON de métricas por captura")
	return cmd
}
