package logx

import (
	"io"
	"os"

	"golang.org/x/term"
)

// OutputConfig describe el destino de los logs
type OutputConfig struct {
	IsTTY   bool
	NoColor bool
}

// DetectOutput detecta características del terminal
func DetectOutput(w io.Writer) OutputConfig {
	tty := isTTY(w)
	return OutputConfig{
		IsTTY:   tty,
		NoColor: !tty || os.Getenv("NO_COLOR") != "",
	}
}

// isTTY detecta si el writer está conectado a un terminal
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
