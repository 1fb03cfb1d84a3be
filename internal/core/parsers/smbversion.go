package parsers

import (
	"iter"
	"regexp"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

var (
	smbVersionTarget = regexp.MustCompile(`([0-9]+(?:\.[0-9]+){3}):([0-9]+)`)
	smbVersionSamba  = regexp.MustCompile(`(Samba \S+)\)`)
)

// SMBVersion lee la salida del módulo auxiliary/scanner/smb/smb_version de
// Metasploit. La versión de Samba se asocia al último host:puerto visto y
// cada combinación se emite una sola vez.
type SMBVersion struct{}

func (SMBVersion) Name() string { return "smb-version" }

func (SMBVersion) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		var (
			target  fact.Fact
			hasHost bool
			seen    = make(map[string]struct{})
		)
		for line := range ls.All() {
			if m := smbVersionTarget.FindStringSubmatch(line); m != nil {
				target = fact.New(fact.AddressOf(m[1]), fact.KV(fact.KeyPort, m[2]))
				hasHost = true
			}
			if !hasHost {
				continue
			}
			m := smbVersionSamba.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			key := target.Address.Value + "\x00" + target.Path[0].Value + "\x00" + m[1]
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if !yield(target.Extend(fact.Label(fact.KeyVersion + "\n"))) {
				return
			}
			if !yield(target.Extend(fact.KV(fact.KeyVersion, m[1]+"\n"))) {
				return
			}
		}
	}
}
