package parsers

import (
	"iter"
	"regexp"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/platform/netutil"
)

var (
	dirbBase  = regexp.MustCompile(`URL_BASE: (https?://\S+/)\S*`)
	dirbFound = regexp.MustCompile(`^(?:\+ |==> DIRECTORY: )(https?://\S+)`)
)

// Dirb emite un hecho por cada URL o directorio encontrado bajo la URL base.
type Dirb struct{}

func (Dirb) Name() string { return "dirb" }

func (Dirb) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		match, ok := ls.Search(dirbBase)
		if !ok {
			return
		}
		host, port, ok := netutil.HostPort(match[1], 80)
		if !ok {
			return
		}
		base := fact.New(fact.AddressOf(host), fact.KV(fact.KeyPort, port))

		for line := range ls.All() {
			found := dirbFound.FindStringSubmatch(line)
			if found == nil {
				continue
			}
			if !yield(base.Extend(fact.KV(fact.KeyURL, found[1]))) {
				return
			}
		}
	}
}
