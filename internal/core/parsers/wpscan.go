package parsers

import (
	"iter"
	"regexp"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/platform/netutil"
)

var wpscanURL = regexp.MustCompile(`\[\+\].*URL: (https?://\S+/\S*).*\[\S+\]`)

type wpscanState int

const (
	wpscanSeekURL wpscanState = iota
	wpscanItems
)

// WPScan lee la salida cli-no-colour de wpscan. Cada línea seguida de
// detalles con sangría " |" se emite primero sola y luego una vez por
// detalle.
type WPScan struct{}

func (WPScan) Name() string { return "wpscan" }

func (WPScan) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		state := wpscanSeekURL
		var target fact.Fact

		for {
			switch state {
			case wpscanSeekURL:
				match, ok := ls.Search(wpscanURL)
				if !ok {
					return
				}
				if t, ok := wpscanTarget(match[1]); ok {
					target = t
					state = wpscanItems
				}

			case wpscanItems:
				item, ok := ls.Next()
				if !ok {
					return
				}
				if m := wpscanURL.FindStringSubmatch(item); m != nil {
					if t, ok := wpscanTarget(m[1]); ok {
						target = t
						continue
					}
				}
				first := true
				for strings.HasPrefix(ls.Peek(), " |") {
					if first {
						if !yield(target.Extend(fact.KV(fact.KeyWPScan, item))) {
							return
						}
						first = false
					}
					detail, _ := ls.Next()
					if !yield(target.Extend(fact.KV(fact.KeyWPScan, trimEOL(item)), fact.Label(detail))) {
						return
					}
				}
			}
		}
	}
}

func wpscanTarget(rawURL string) (fact.Fact, bool) {
	host, port, ok := netutil.HostPort(rawURL, 80)
	if !ok {
		return fact.Fact{}, false
	}
	return fact.New(fact.AddressOf(host), fact.KV(fact.KeyPort, port)), true
}
