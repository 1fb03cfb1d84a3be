package parsers

import (
	"iter"
	"regexp"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

var (
	pingNamed = regexp.MustCompile(`from ([a-zA-Z0-9\-_]+) \((\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\)`)
	pingIPv4  = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})`)
)

// Ping emite la dirección de cada respuesta ICMP. Si la respuesta trae nombre
// y dirección se prefiere el nombre.
type Ping struct{}

func (Ping) Name() string { return "ping" }

func (Ping) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		for line := range ls.All() {
			if strings.Contains(line, "Unreachable") || !strings.Contains(line, "icmp_seq") {
				continue
			}
			host, ok := pingResponder(line)
			if !ok {
				continue
			}
			if !yield(fact.New(fact.AddressOf(host))) {
				return
			}
		}
	}
}

func pingResponder(line string) (string, bool) {
	if m := pingNamed.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := pingIPv4.FindString(line); m != "" {
		return m, true
	}
	return "", false
}
