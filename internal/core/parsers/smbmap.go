package parsers

import (
	"iter"
	"regexp"
	"strconv"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/platform/logx"
)

var (
	smbmapHeader  = regexp.MustCompile(`\[\+\].*IP: (\S+):(\S+).*Name: (\S+)`)
	smbmapColumns = regexp.MustCompile(`\s{2,}|\t`)
)

const smbmapNoAccess = "NO ACCESS"

// SMBMapLayout decide cómo se presentan permiso y comentario de cada share.
type SMBMapLayout int

const (
	// SMBMapNested anida permiso y comentario bajo el nombre del share.
	SMBMapNested SMBMapLayout = iota
	// SMBMapCounted usa claves propias con el índice de la fila como prefijo.
	SMBMapCounted
)

type smbmapState int

const (
	smbmapSeekHeader smbmapState = iota
	smbmapRows
)

// SMBMap lee la tabla de shares de smbmap. Tras cada cabecera de host se
// saltan siempre dos líneas; una línea vacía cierra el bloque del host.
type SMBMap struct {
	name string
	// SkipNoAccess descarta las filas cuyo permiso es exactamente "NO ACCESS".
	SkipNoAccess bool
	Layout       SMBMapLayout
}

// NewSMBMap devuelve la variante actual: filtra los shares inaccesibles.
func NewSMBMap() SMBMap {
	return SMBMap{name: "smbmap", SkipNoAccess: true, Layout: SMBMapNested}
}

// NewSMBMapCount devuelve la variante que lista todos los shares numerados.
func NewSMBMapCount() SMBMap {
	return SMBMap{name: "smbmap-count", Layout: SMBMapCounted}
}

func (p SMBMap) Name() string {
	if p.name == "" {
		return "smbmap"
	}
	return p.name
}

func (p SMBMap) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		state := smbmapSeekHeader
		var (
			target fact.Fact
			count  int
		)
		for {
			switch state {
			case smbmapSeekHeader:
				match, ok := ls.Search(smbmapHeader)
				if !ok {
					return
				}
				port := match[2]
				if _, err := strconv.Atoi(port); err != nil {
					port = "445"
				}
				target = fact.New(fact.AddressOf(match[1]), fact.KV(fact.KeyPort, port))
				count = 0
				ls.Next()
				ls.Next()
				state = smbmapRows

			case smbmapRows:
				line, ok := ls.Next()
				if !ok {
					return
				}
				if strings.TrimRight(line, "\r\n") == "" {
					state = smbmapSeekHeader
					continue
				}
				cols := smbmapColumns.Split(line, -1)
				if len(cols) < 4 {
					logx.LogParser(logx.LevelTrace, p.Name(), "fila de share incompleta", logx.Fields{"line": trimEOL(line)})
					continue
				}
				drive, perm, comment := cols[1], cols[2], cols[3]
				if p.SkipNoAccess && perm == smbmapNoAccess {
					continue
				}
				if !strings.Contains(comment, "\n") {
					comment += "\n"
				}
				for _, f := range p.rowFacts(target, drive, perm, comment, count) {
					if !yield(f) {
						return
					}
				}
				count++
			}
		}
	}
}

// rowFacts devuelve los tres hechos de una fila: share, permiso y comentario.
func (p SMBMap) rowFacts(target fact.Fact, drive, perm, comment string, index int) []fact.Fact {
	if p.Layout == SMBMapCounted {
		n := strconv.Itoa(index)
		return []fact.Fact{
			target.Extend(fact.KV(fact.KeySMBDrive, drive+"\n")),
			target.Extend(fact.KV(fact.KeySMBPerm, n+perm+"\n")),
			target.Extend(fact.KV(fact.KeySMBComment, n+comment)),
		}
	}
	return []fact.Fact{
		target.Extend(fact.KV(fact.KeySMBDrive, drive+"\n")),
		target.Extend(fact.KV(fact.KeySMBDrive, drive), fact.Label("Permissions: "+perm+"\n")),
		target.Extend(fact.KV(fact.KeySMBDrive, drive), fact.Label("Comment: "+comment+"\n")),
	}
}
