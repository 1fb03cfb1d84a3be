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
	nmapHost       = regexp.MustCompile(`^Nmap scan report for (\S+)(?:\s*\(([^)]*)\))?`)
	nmapPortRow    = regexp.MustCompile(`^\d+/\w+`)
	nmapHostScript = "Host script results:"
)

type nmapState int

const (
	nmapSeekHost nmapState = iota
	nmapSeekHeader
	nmapPortRows
	nmapPortDetail
	nmapTrailer
	nmapDone
)

// Nmap lee la salida normal de nmap: informe por host, tabla de puertos,
// bloques de scripts por puerto y resultados de scripts del host.
type Nmap struct{}

func (Nmap) Name() string { return "nmap" }

func (Nmap) Parse(ls *linestream.Stream, _ Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		m := &nmapMachine{ls: ls, out: emitter{yield: yield}}
		m.run()
	}
}

type nmapMachine struct {
	ls    *linestream.Stream
	out   emitter
	state nmapState

	host fact.Fact // dirección y, si la hay, la IP del informe
	port fact.Fact // host + port|port-udp del último puerto
}

func (m *nmapMachine) run() {
	for m.state != nmapDone && !m.out.stopped {
		switch m.state {
		case nmapSeekHost:
			m.state = m.seekHost()
		case nmapSeekHeader:
			m.state = m.seekHeader()
		case nmapPortRows:
			m.state = m.portRows()
		case nmapPortDetail:
			m.state = m.portDetail()
		case nmapTrailer:
			m.state = m.trailer()
		}
	}
}

// seekHost busca el informe del host. Si aparece antes la cabecera de
// puertos, el host queda como desconocido.
func (m *nmapMachine) seekHost() nmapState {
	for line := range m.ls.All() {
		if m.setHost(line) {
			return nmapSeekHeader
		}
		if isPortHeader(line) {
			m.host = fact.New(fact.Address{Kind: netutil.KindHost, Value: "unknown"})
			return nmapPortRows
		}
	}
	return nmapDone
}

func (m *nmapMachine) setHost(line string) bool {
	match := nmapHost.FindStringSubmatch(line)
	if match == nil {
		return false
	}
	if match[2] != "" {
		addr := fact.AddressOf(match[2])
		m.host = fact.New(fact.Address{Kind: netutil.KindHost, Value: match[1]}, fact.KV(string(addr.Kind), addr.Value))
	} else {
		m.host = fact.New(fact.AddressOf(match[1]))
	}
	return true
}

func (m *nmapMachine) seekHeader() nmapState {
	for line := range m.ls.All() {
		if isPortHeader(line) {
			return nmapPortRows
		}
		// Host sin puertos abiertos: el siguiente informe reemplaza al actual.
		m.setHost(line)
	}
	return nmapDone
}

func isPortHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 3 && fields[0] == "PORT" && fields[1] == "STATE" && fields[2] == "SERVICE"
}

func (m *nmapMachine) portRows() nmapState {
	if !m.ls.HasMore() {
		return nmapDone
	}
	if !nmapPortRow.MatchString(m.ls.Peek()) {
		return nmapTrailer
	}
	line, _ := m.ls.Next()

	fields := splitFields(line, 2)
	if len(fields) < 2 {
		logx.LogParser(logx.LevelTrace, "nmap", "fila de puerto incompleta", logx.Fields{"line": trimEOL(line)})
		return nmapPortRows
	}

	service := fields[0]
	key := fact.KeyPort
	if strings.Contains(service, "udp") {
		key = fact.KeyPortUDP
	}
	number, _, _ := strings.Cut(service, "/")
	m.port = m.host.Extend(fact.KV(key, number))

	if len(fields) < 3 {
		m.out.emit(m.port)
		return nmapPortDetail
	}
	nameVersion := splitFields(fields[2], 1)
	if len(nameVersion) == 0 {
		m.out.emit(m.port)
		return nmapPortDetail
	}
	if !m.out.emit(m.port.Extend(fact.KV(fact.KeyName, nameVersion[0]))) {
		return nmapDone
	}
	if len(nameVersion) > 1 {
		m.out.emit(m.port.Extend(fact.KV(fact.KeyVersion, nameVersion[1])))
	}
	return nmapPortDetail
}

// portDetail consume los bloques "|" que siguen a una fila y los asocia al
// mismo puerto.
func (m *nmapMachine) portDetail() nmapState {
	for strings.HasPrefix(m.ls.Peek(), "|") {
		if !scriptBlock(m.ls, m.port, &m.out) {
			return nmapDone
		}
	}
	return nmapPortRows
}

// trailer procesa lo que sigue a la tabla. Los resultados de scripts del
// host y las líneas informativas se asocian al host.
func (m *nmapMachine) trailer() nmapState {
	for {
		line, ok := m.ls.Next()
		if !ok {
			return nmapDone
		}
		switch {
		case isBlank(line):
			continue
		case nmapHost.MatchString(line):
			m.ls.PushBack(line)
			return nmapSeekHost
		case strings.Contains(line, nmapHostScript):
			for strings.HasPrefix(m.ls.Peek(), "|") {
				if !scriptBlock(m.ls, m.host, &m.out) {
					return nmapDone
				}
			}
		case strings.HasPrefix(line, "|"):
			m.ls.PushBack(line)
			for strings.HasPrefix(m.ls.Peek(), "|") {
				if !scriptBlock(m.ls, m.host, &m.out) {
					return nmapDone
				}
			}
		case isFingerprint(line):
			continue
		default:
			if !m.out.emit(m.host.Extend(fact.KV(fact.KeyInfo, strings.TrimSpace(line)))) {
				return nmapDone
			}
		}
	}
}

func isFingerprint(line string) bool {
	return strings.HasPrefix(line, "SF") || strings.HasPrefix(line, "==============NEXT SERVICE FINGERPRINT")
}

// scriptBlock consume un bloque de script que empieza en la línea
// pendiente y emite sus hechos bajo base. Devuelve false si el consumidor
// dejó de pedir hechos.
func scriptBlock(ls *linestream.Stream, base fact.Fact, out *emitter) bool {
	head := ls.Peek()
	switch {
	case strings.HasPrefix(head, "| vulners:"):
		return vulnersBlock(ls, base, out)
	case strings.HasPrefix(head, "|_"):
		line, _ := ls.Next()
		key, value, ok := strings.Cut(line[len("|_"):], ":")
		if !ok {
			return true
		}
		return out.emit(base.Extend(fact.KV(strings.TrimSpace(key)+":", strings.TrimLeft(value, " "))))
	case strings.HasPrefix(head, "| "):
		line, _ := ls.Next()
		name := strings.TrimSpace(skipPrefix(trimEOL(line), 2))
		for {
			next := ls.Peek()
			if !strings.HasPrefix(next, "|") {
				return true
			}
			ls.Next()
			if !out.emit(base.Extend(fact.KV(name, strings.TrimSpace(skipPrefix(next, 2))))) {
				return false
			}
			if strings.HasPrefix(next, "|_") {
				return true
			}
		}
	default:
		line, _ := ls.Next()
		logx.LogParser(logx.LevelTrace, "nmap", "línea de script descartada", logx.Fields{"line": trimEOL(line)})
		return true
	}
}

// vulnersBlock lee la salida del script vulners: una o varias plataformas
// seguidas de sus entradas. La línea "|_" final es la última entrada.
func vulnersBlock(ls *linestream.Stream, base fact.Fact, out *emitter) bool {
	ls.Next()
	platform := ""
	for {
		next := ls.Peek()
		if !strings.HasPrefix(next, "|") || strings.HasPrefix(next, "| ") && !strings.HasPrefix(next, "|  ") {
			return true
		}
		line, _ := ls.Next()
		content := strings.TrimSpace(skipPrefix(trimEOL(line), 2))
		last := strings.HasPrefix(line, "|_")

		if !strings.Contains(content, "\t") && strings.HasSuffix(content, ":") {
			platform = strings.TrimRight(content, ":")
		} else if platform != "" && content != "" {
			entry := strings.ReplaceAll(content, "\t", " ")
			f := base.Extend(fact.KV(fact.KeyPlatform, platform), fact.KV(fact.KeyVulner, entry))
			if !out.emit(f) {
				return false
			}
		}
		if last {
			return true
		}
	}
}
