package parsers

import (
	"iter"
	"regexp"
	"strings"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/platform/logx"
	"scan-facts/internal/platform/netutil"
)

var (
	ipAddrInterface = regexp.MustCompile(`^\d+: .*:`)
	ipAddrEther     = regexp.MustCompile(`^\s+link/ether `)
	ipAddrInet      = regexp.MustCompile(`^\s+inet `)
	ipAddrInet6     = regexp.MustCompile(`^\s+inet6 `)
)

type ipAddrState int

const (
	ipAddrSeekInterface ipAddrState = iota
	ipAddrInInterface
	ipAddrInLink
	ipAddrDone
)

// IPAddr lee `ip addr`. Solo las interfaces con enlace ethernet producen
// hechos; todos son locales y se asocian al host configurado. Al cerrar cada
// enlace se emite la dirección principal de la interfaz, si la hay.
type IPAddr struct{}

func (IPAddr) Name() string { return "ip-addr" }

func (IPAddr) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		m := &ipAddrMachine{ls: ls, out: emitter{yield: yield}, addr: env.HostAddress()}
		m.run()
	}
}

type ipAddrMachine struct {
	ls    *linestream.Stream
	out   emitter
	addr  fact.Address
	state ipAddrState

	iface      string
	candidates []string
}

func (m *ipAddrMachine) local(path ...fact.Pair) bool {
	return m.out.emit(fact.LocalFact(m.addr, path...))
}

func (m *ipAddrMachine) run() {
	for m.state != ipAddrDone && !m.out.stopped {
		switch m.state {
		case ipAddrSeekInterface:
			m.state = m.seekInterface()
		case ipAddrInInterface:
			m.state = m.inInterface()
		case ipAddrInLink:
			m.state = m.inLink()
		}
	}
}

func (m *ipAddrMachine) seekInterface() ipAddrState {
	for line := range m.ls.All() {
		if m.openInterface(line) {
			return ipAddrInInterface
		}
	}
	return ipAddrDone
}

func (m *ipAddrMachine) openInterface(line string) bool {
	if !ipAddrInterface.MatchString(line) {
		return false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	m.iface = strings.TrimSuffix(fields[1], ":")
	return true
}

func (m *ipAddrMachine) inInterface() ipAddrState {
	for line := range m.ls.All() {
		if ipAddrInterface.MatchString(line) {
			m.ls.PushBack(line)
			return ipAddrSeekInterface
		}
		if !ipAddrEther.MatchString(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mac := fields[1]
		m.candidates = m.candidates[:0]
		if !m.local(fact.KV(fact.KeyMAC, mac)) {
			return ipAddrDone
		}
		if !m.local(fact.KV(fact.KeyInterface, m.iface), fact.KV(fact.KeyMAC, mac)) {
			return ipAddrDone
		}
		return ipAddrInLink
	}
	return ipAddrDone
}

// inLink lee las direcciones del enlace actual hasta la siguiente cabecera
// de interfaz o de enlace, que se devuelve al stream.
func (m *ipAddrMachine) inLink() ipAddrState {
	next := ipAddrDone
	for line := range m.ls.All() {
		if ipAddrInterface.MatchString(line) {
			m.ls.PushBack(line)
			next = ipAddrSeekInterface
			break
		}
		if ipAddrEther.MatchString(line) {
			m.ls.PushBack(line)
			next = ipAddrInInterface
			break
		}
		if !ipAddrInet.MatchString(line) && !ipAddrInet6.MatchString(line) {
			continue
		}
		if !m.address(line) {
			return ipAddrDone
		}
	}
	if !m.primary() {
		return ipAddrDone
	}
	return next
}

func (m *ipAddrMachine) address(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return true
	}
	iface, err := netutil.ParseInterface(fields[1])
	if err != nil {
		logx.LogParser(logx.LevelTrace, "ip-addr", "dirección descartada", logx.Fields{"value": fields[1]})
		return true
	}
	kind := string(iface.Kind())
	ip := iface.Addr.String()

	if iface.Routable() {
		if !m.local(fact.KV(fact.KeyNetwork, iface.Network.String())) {
			return false
		}
	}
	if !m.local(fact.KV(kind, ip), fact.KV(fact.KeyNetmask, iface.Netmask())) {
		return false
	}
	m.candidates = append(m.candidates, kind, ip)
	return m.local(fact.KV(fact.KeyInterface, m.iface), fact.KV(kind, ip))
}

func (m *ipAddrMachine) primary() bool {
	kind, ip, ok := netutil.ReduceToHost(m.candidates)
	if !ok {
		return true
	}
	return m.local(fact.KV(fact.KeyInterface, m.iface), fact.KV(string(kind), ip), fact.Label(fact.KeyPrimary))
}
