// Package cli define los comandos de scan-facts.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scan-facts/internal/core/parsers"
	"scan-facts/internal/platform/config"
	apperrors "scan-facts/internal/platform/errors"
	"scan-facts/internal/platform/logx"
)

// Version se fija al compilar con -ldflags "-X scan-facts/internal/cli.Version=...".
var Version = "dev"

// newCatalog permite sustituir el catálogo en los tests.
var newCatalog = parsers.NewCatalog

// state es lo que comparten los subcomandos de una invocación.
type state struct {
	cfg        config.Config
	configPath string
	catalog    *parsers.Catalog
}

// NewRootCommand construye el árbol de comandos.
func NewRootCommand() *cobra.Command {
	st := &state{cfg: config.Default()}

	root := &cobra.Command{
		Use:   "scan-facts",
		Short: "Convierte la salida de herramientas de seguridad en hechos",
		Long: `scan-facts lee la salida de texto de herramientas como nmap, nikto, smbmap o
hydra y la convierte en hechos tabulados (alcance, dirección, ruta de claves).

Los hechos salen por stdout; los logs van siempre a stderr.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			st.catalog = newCatalog()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.configPath, "config", "", "Fichero de configuración YAML o JSON")
	pf.CountVarP(&st.cfg.Verbosity, config.FlagVerbosity, "v", "Aumenta el detalle de los logs (-v, -vv, -vvv)")
	pf.BoolVar(&st.cfg.LogJSON, config.FlagLogJSON, false, "Logs en formato JSON")
	pf.StringVar(&st.cfg.LogLevel, config.FlagLogLevel, "", "Nivel de log: error, warn, info, debug o trace (tiene prioridad sobre -v)")
	pf.BoolVar(&st.cfg.NoColor, config.FlagNoColor, false, "Desactiva los colores")

	root.AddCommand(
		newParseCommand(st),
		newFilterCommand(st),
		newParsersCommand(st),
		newMatchCommand(st),
		newConvertCommand(st),
	)
	return root
}

// Execute ejecuta la línea de comandos y devuelve el código de salida.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// load aplica el fichero de configuración sobre los flags, normaliza y
// configura el logging. inputsGiven indica si hubo argumentos posicionales.
func (st *state) load(cmd *cobra.Command, inputsGiven bool) error {
	if st.configPath != "" {
		fc, err := config.LoadFile(st.configPath)
		if err != nil {
			return apperrors.WithSuggestion(err, "Comprueba la ruta pasada a --config")
		}
		st.cfg.ApplyFile(fc, func(name string) bool {
			if name == config.FlagInputs {
				return inputsGiven
			}
			return cmd.Flags().Changed(name)
		})
	}
	st.cfg.Normalize()
	return configureOutput(cmd.ErrOrStderr(), st.cfg)
}

func configureOutput(stderr io.Writer, cfg config.Config) error {
	logx.SetOutput(stderr)
	logx.SetVerbosity(cfg.Verbosity)
	if cfg.LogLevel != "" {
		lvl, err := logx.ParseLevel(cfg.LogLevel)
		if err != nil {
			return apperrors.NewConfigurationError(config.FlagLogLevel, cfg.LogLevel, "nivel de log desconocido", "Usa --log-level error, warn, info, debug o trace")
		}
		logx.SetLevel(lvl)
	}
	logx.SetJSON(cfg.LogJSON)
	if cfg.NoColor {
		logx.EnableColors(false)
		color.NoColor = true
	}
	return nil
}

func printError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	red := color.New(color.FgRed, color.Bold)
	msg := err.Error()
	first, rest, _ := strings.Cut(msg, "\n")
	red.Fprint(w, "✗ ")
	fmt.Fprintln(w, first)
	if rest != "" {
		fmt.Fprintln(w, rest)
	}
}
