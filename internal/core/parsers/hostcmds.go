package parsers

import (
	"iter"
	"regexp"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

// Parsers de comandos ejecutados en una máquina comprometida. Todos los
// hechos se asocian al host configurado con la etiqueta local.

var (
	psCommand  = regexp.MustCompile(`(?m)(\d{1,2}:\d{1,2}\s+)(.*)$`)
	netstatRow = regexp.MustCompile(`(tcp|tcp6|udp).*`)
)

// PS extrae el comando de cada proceso de `ps aux | grep root`.
type PS struct{}

func (PS) Name() string { return "ps" }

func (PS) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		addr := env.HostAddress()
		for {
			match, ok := ls.Search(psCommand)
			if !ok {
				return
			}
			if !yield(fact.HostScoped(addr, fact.KV(fact.KeyRootProcess, match[2]))) {
				return
			}
		}
	}
}

// Uname extrae sistema, nombre de host y versión del kernel de `uname -a`.
type Uname struct{}

func (Uname) Name() string { return "uname" }

func (Uname) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		addr := env.HostAddress()
		for line := range ls.All() {
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			for i, key := range []string{"OS", "hostname", "version"} {
				if !yield(fact.HostScoped(addr, fact.KV(fact.KeyUname, key), fact.Label(fields[i]))) {
					return
				}
			}
		}
	}
}

// Find emite cada fichero SUID listado por find.
type Find struct{}

func (Find) Name() string { return "find" }

func (Find) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		addr := env.HostAddress()
		for line := range ls.All() {
			if isBlank(line) {
				continue
			}
			if !yield(fact.HostScoped(addr, fact.KV(fact.KeySUIDFile, line))) {
				return
			}
		}
	}
}

const (
	redhatRelease = "/etc/redhat-release"
	osRelease     = "/etc/os-release"
	prettyName    = "PRETTY_NAME="
)

// Cat interpreta el fichero leído con cat. El nombre sale del segundo token
// de la línea de comando; sin él no se emite nada.
type Cat struct{}

func (Cat) Name() string { return "cat" }

func (Cat) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		fields := strings.Fields(env.CommandLine)
		if len(fields) < 2 {
			return
		}
		filename := fields[1]
		addr := env.HostAddress()

		for line := range ls.All() {
			if isBlank(line) {
				continue
			}
			var pair fact.Pair
			switch filename {
			case redhatRelease:
				pair = fact.KV(fact.KeyVersion, line)
			case osRelease:
				_, value, ok := strings.Cut(line, prettyName)
				if !ok {
					continue
				}
				pair = fact.KV(fact.KeyVersion, strings.ReplaceAll(value, `"`, ""))
			default:
				pair = fact.KV(filename, line)
			}
			if !yield(fact.HostScoped(addr, pair)) {
				return
			}
		}
	}
}

// Netstat emite cada socket tcp/udp de `netstat -antup`.
type Netstat struct{}

func (Netstat) Name() string { return "netstat" }

func (Netstat) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		addr := env.HostAddress()
		for {
			match, ok := ls.Search(netstatRow)
			if !ok {
				return
			}
			if !yield(fact.HostScoped(addr, fact.KV(fact.KeyNetwork, match[0]))) {
				return
			}
		}
	}
}

// Meterpreter consume la salida de una sesión sin extraer hechos; existe
// para que el catálogo reconozca el comando.
type Meterpreter struct{}

func (Meterpreter) Name() string { return "meterpreter" }

func (Meterpreter) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(func(fact.Fact) bool) {
		for range ls.All() {
		}
	}
}
