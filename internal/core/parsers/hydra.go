package parsers

import (
	"iter"
	"regexp"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

var hydraResult = regexp.MustCompile(`.*\[(\S+)\].*\[(\S+)\].*host: (\S+).*login: (\S+).*password: (\S+).*`)

// Hydra emite las credenciales válidas que encuentra hydra: primero el
// usuario y después el par usuario/contraseña.
type Hydra struct{}

func (Hydra) Name() string { return "hydra" }

func (Hydra) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		for {
			match, ok := ls.Search(hydraResult)
			if !ok {
				return
			}
			port, host, login, password := match[1], match[3], match[4], match[5]
			user := fact.New(fact.AddressOf(host), fact.KV(fact.KeyPort, port), fact.KV(fact.KeyUser, login))
			if !yield(user) {
				return
			}
			if !yield(user.Extend(fact.KV(fact.KeyPass, password))) {
				return
			}
		}
	}
}
