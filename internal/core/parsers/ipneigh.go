package parsers

import (
	"iter"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

// IPNeigh lee la tabla de vecinos de `ip neigh`: "addr dev if [lladdr mac] ...".
type IPNeigh struct{}

func (IPNeigh) Name() string { return "ip-neigh" }

func (IPNeigh) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		for line := range ls.All() {
			fields := strings.Fields(line)
			if len(fields) < 3 || fields[1] != "dev" {
				continue
			}
			neighbour := fact.New(fact.AddressOf(fields[0]))
			rest := fields[3:]
			if len(rest) >= 2 && rest[0] == "lladdr" {
				neighbour = neighbour.Extend(fact.KV(fact.KeyMAC, rest[1]))
			}
			if !yield(neighbour) {
				return
			}
		}
	}
}
