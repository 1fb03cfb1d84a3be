package parsers

import (
	"iter"
	"regexp"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

var (
	niktoTargetIP       = regexp.MustCompile(`Target IP:\s*(\S+)`)
	niktoTargetHostname = regexp.MustCompile(`Target Hostname:\s*(\S+)`)
	niktoTargetPort     = regexp.MustCompile(`Target Port:\s*(\S+)`)
)

// Nikto lee informes de nikto. Solo "Target Hostname" fija la dirección;
// la IP de la cabecera se ignora a propósito. "End Time" cierra el segmento
// y descarta el contexto, de modo que varios escaneos seguidos se leen por
// separado.
type Nikto struct{}

func (Nikto) Name() string { return "nikto" }

func (Nikto) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		var (
			host    fact.Address
			port    string
			hasHost bool
		)
		for line := range ls.All() {
			switch {
			case niktoTargetIP.MatchString(line):
				continue
			case niktoTargetHostname.MatchString(line):
				host = fact.AddressOf(niktoTargetHostname.FindStringSubmatch(line)[1])
				hasHost = true
				continue
			case niktoTargetPort.MatchString(line):
				port = niktoTargetPort.FindStringSubmatch(line)[1]
				continue
			case strings.HasPrefix(line, "+ Start Time:"):
				continue
			case !strings.HasPrefix(line, "+"):
				continue
			case strings.HasPrefix(line, "+ End Time:"):
				host, port, hasHost = fact.Address{}, "", false
				continue
			}

			if !hasHost || port == "" {
				continue
			}
			if !yield(fact.New(host, fact.KV(fact.KeyPort, port), fact.KV(fact.KeyNiktoVuln, line))) {
				return
			}
		}
	}
}
