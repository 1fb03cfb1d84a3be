package parsers

import "testing"

func TestIPNeigh(t *testing.T) {
	input := `10.0.2.2 dev eth0 lladdr 52:54:00:12:35:02 REACHABLE
10.0.2.9 dev eth0 FAILED
fe80::1 dev eth0 lladdr 52:54:00:12:35:03 router STALE
garbage
`
	assertTokens(t, [][]string{
		{"remote", "ipv4", "10.0.2.2", "mac", "52:54:00:12:35:02"},
		{"remote", "ipv4", "10.0.2.9"},
		{"remote", "ipv6", "fe80::1", "mac", "52:54:00:12:35:03"},
	}, parse(t, IPNeigh{}, input, Env{}))
}
