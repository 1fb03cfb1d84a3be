package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scan-facts/internal/core/parsers"
	apperrors "scan-facts/internal/platform/errors"
)

var (
	groupColor    = color.New(color.FgCyan, color.Bold)
	nameColor     = color.New(color.FgGreen)
	selectedColor = color.New(color.FgGreen, color.Bold)
	dimColor      = color.New(color.FgHiBlack)
)

func newParsersCommand(st *state) *cobra.Command {
	var showTemplates bool
	cmd := &cobra.Command{
		Use:   "parsers",
		Short: "Lista los parsers disponibles agrupados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.load(cmd, false); err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), st.catalog, showTemplates)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showTemplates, "templates", "t", false, "Muestra los comandos sugeridos de cada parser")
	return cmd
}

func newMatchCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "match <línea-de-comando>",
		Short: "Muestra qué parsers reconocen una línea de comando",
		Example: `  scan-facts match "sudo nmap -sV 10.0.0.5"
  scan-facts match smbmap -H 10.0.0.5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.load(cmd, false); err != nil {
				return err
			}
			commandLine := strings.Join(args, " ")
			matches := st.catalog.MatchAll(commandLine)
			if len(matches) == 0 {
				return apperrors.NewNoParserMatchError(commandLine)
			}
			printMatches(cmd.OutOrStdout(), matches)
			return nil
		},
	}
}

func printCatalog(w io.Writer, catalog *parsers.Catalog, showTemplates bool) {
	groups, byGroup := catalog.Groups()
	for i, group := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := group
		if title == "" {
			title = "General"
		}
		groupColor.Fprintln(w, title)
		for _, def := range byGroup[group] {
			nameColor.Fprintf(w, "  %-14s", def.Name)
			fmt.Fprintf(w, " %s\n", def.Title())
			if showTemplates {
				printTemplates(w, def, "      ")
			}
		}
	}
}

// printMatches marca como seleccionada la primera definición, que es la
// que usaría la selección automática.
func printMatches(w io.Writer, matches []*parsers.Definition) {
	for i, def := range matches {
		if i == 0 {
			selectedColor.Fprintf(w, "* %s", def.Name)
		} else {
			nameColor.Fprintf(w, "  %s", def.Name)
		}
		if def.Group != "" {
			dimColor.Fprintf(w, " [%s]", def.Group)
		}
		fmt.Fprintln(w)
		printTemplates(w, def, "    ")
	}
}

func printTemplates(w io.Writer, def *parsers.Definition, indent string) {
	for _, tpl := range def.Templates {
		fmt.Fprintf(w, "%s%s\n", indent, tpl.Command)
	}
	if def.Condition != "" {
		dimColor.Fprintf(w, "%scondición: %s\n", indent, def.Condition)
	}
}
