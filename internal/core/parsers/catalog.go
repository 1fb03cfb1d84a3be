package parsers

import (
	"regexp"
	"sort"
	"strings"
)

// Template es una línea de comando sugerida para un parser, con su
// descripción.
type Template struct {
	Title   string
	Command string
}

// Definition describe un parser en el catálogo: cómo reconocer el comando
// que lo alimenta, qué comandos sugerir y en qué condiciones.
type Definition struct {
	Name  string
	Group string
	// Patterns son expresiones sin anclar que se prueban contra la línea de
	// comando normalizada.
	Patterns  []string
	Templates []Template
	// Condition es la condición de aplicabilidad en JSON, tal y como la
	// consume el orquestador.
	Condition string
	// RawTerminator indica que los valores del parser ya traen su salto de
	// línea y que la serialización byte a byte no debe añadir otro.
	RawTerminator bool
	Parser        Parser

	compiled []*regexp.Regexp
}

// Matches indica si la línea de comando (ya normalizada) coincide con algún patrón.
func (d *Definition) Matches(commandLine string) bool {
	for _, re := range d.compiled {
		if re.MatchString(commandLine) {
			return true
		}
	}
	return false
}

// Title devuelve la descripción de la primera plantilla.
func (d *Definition) Title() string {
	if len(d.Templates) == 0 {
		return ""
	}
	return d.Templates[0].Title
}

// Catalog gestiona las definiciones disponibles en orden de prioridad.
type Catalog struct {
	defs []*Definition
}

// NewCatalog crea el catálogo con todos los parsers disponibles.
func NewCatalog() *Catalog {
	c := &Catalog{}
	for _, def := range builtinDefinitions() {
		c.Register(def)
	}
	return c
}

// Register añade una definición al final del catálogo. Los patrones que no
// compilan se ignoran.
func (c *Catalog) Register(def Definition) {
	d := def
	d.compiled = nil
	for _, p := range d.Patterns {
		if re, err := regexp.Compile(p); err == nil {
			d.compiled = append(d.compiled, re)
		}
	}
	c.defs = append(c.defs, &d)
}

// Lookup devuelve una definición por nombre.
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	if c == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range c.defs {
		if strings.ToLower(d.Name) == name {
			return d, true
		}
	}
	return nil, false
}

// Match devuelve la primera definición cuyo patrón reconoce la línea de comando.
func (c *Catalog) Match(commandLine string) (*Definition, bool) {
	all := c.MatchAll(commandLine)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// MatchAll devuelve todas las definiciones que reconocen la línea de
// comando, en orden de prioridad.
func (c *Catalog) MatchAll(commandLine string) []*Definition {
	if c == nil {
		return nil
	}
	normalized := NormalizeCommandLine(commandLine)
	if normalized == "" {
		return nil
	}
	var out []*Definition
	for _, d := range c.defs {
		if d.Matches(normalized) {
			out = append(out, d)
		}
	}
	return out
}

// All devuelve todas las definiciones registradas.
func (c *Catalog) All() []*Definition {
	if c == nil {
		return nil
	}
	return c.defs
}

// Names devuelve los nombres registrados en orden de prioridad.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.All()))
	for _, d := range c.All() {
		names = append(names, d.Name)
	}
	return names
}

// Groups agrupa las definiciones por grupo, con los grupos ordenados
// alfabéticamente. Las definiciones sin grupo van a "".
func (c *Catalog) Groups() ([]string, map[string][]*Definition) {
	byGroup := make(map[string][]*Definition)
	for _, d := range c.All() {
		byGroup[d.Group] = append(byGroup[d.Group], d)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, byGroup
}

var (
	trailingBlanks = regexp.MustCompile(`[ \t]*\n`)
	leadingBlanks  = regexp.MustCompile(`^[ \t]+`)
	blankRuns      = regexp.MustCompile(`[ \t]+`)
)

// NormalizeCommandLine elimina los saltos de línea y el espacio inicial y
// colapsa las secuencias de espacios y tabuladores en un espacio.
func NormalizeCommandLine(s string) string {
	s = trailingBlanks.ReplaceAllString(s, "")
	s = leadingBlanks.ReplaceAllString(s, "")
	return blankRuns.ReplaceAllString(s, " ")
}
