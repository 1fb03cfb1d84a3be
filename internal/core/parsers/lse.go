package parsers

import (
	"iter"
	"regexp"
	"strings"
	"unicode"

	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
)

var (
	lseSection = regexp.MustCompile(`^=+\( (users|sudo|file system|security|recurrent tasks|network|services|software|containers|processes|CVEs) \)`)
	lseItem    = regexp.MustCompile(`^\[(i|\*|!)\].*`)
	lseResult  = regexp.MustCompile(`^.*(yes!|skip|nope)`)
)

const (
	lseBodyMarker = "Current Output"
	lseBasicInfo  = "basic-info"
	lseRule       = "---"
)

type lseState int

const (
	lseHeader lseState = iota
	lseSeekSection
	lseInSection
	lseElaboration
	lseDone
)

// LSE lee la salida de linux-smart-enumeration. La cabecera se copia
// literalmente hasta "Current Output"; el cuerpo se divide en secciones de
// un vocabulario cerrado y los hallazgos se atan al último elemento visto.
type LSE struct{}

func (LSE) Name() string { return "lse" }

func (LSE) Parse(ls *linestream.Stream, env Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		m := &lseMachine{ls: ls, out: emitter{yield: yield}, addr: env.HostAddress()}
		m.run()
	}
}

type lseMachine struct {
	ls    *linestream.Stream
	out   emitter
	addr  fact.Address
	state lseState

	section string
	item    string
}

func (m *lseMachine) result(path ...fact.Pair) bool {
	return m.out.emit(fact.HostScoped(m.addr, path...))
}

func (m *lseMachine) run() {
	if !m.result(fact.Label(fact.KeyLSEResult+"\n")) {
		return
	}
	if !m.result(fact.KV(fact.KeyLSEResult, lseBasicInfo+"\n")) {
		return
	}
	for m.state != lseDone && !m.out.stopped {
		switch m.state {
		case lseHeader:
			m.state = m.header()
		case lseSeekSection:
			m.state = m.seekSection()
		case lseInSection:
			m.state = m.inSection()
		case lseElaboration:
			m.state = m.elaboration()
		}
	}
}

func (m *lseMachine) header() lseState {
	for line := range m.ls.All() {
		if strings.Contains(line, lseBodyMarker) {
			return lseSeekSection
		}
		if isBlank(line) || strings.HasPrefix(line, lseRule) {
			continue
		}
		if !m.result(fact.KV(fact.KeyLSEResult, lseBasicInfo), fact.Label(line)) {
			return lseDone
		}
	}
	return lseDone
}

func (m *lseMachine) seekSection() lseState {
	for line := range m.ls.All() {
		if match := lseSection.FindStringSubmatch(line); match != nil {
			m.section = match[1]
			if !m.result(fact.KV(fact.KeyLSEResult, m.section+"\n")) {
				return lseDone
			}
			return lseInSection
		}
	}
	return lseDone
}

// inSection procesa líneas hasta la siguiente cabecera de sección, que se
// devuelve al stream para que la vea seekSection.
func (m *lseMachine) inSection() lseState {
	for line := range m.ls.All() {
		switch {
		case lseSection.MatchString(line):
			m.ls.PushBack(line)
			return lseSeekSection
		case lseItem.MatchString(line):
			m.item = line
			if lseResult.MatchString(line) {
				if !m.result(fact.KV(fact.KeyLSEResult, m.section), fact.Label(m.item)) {
					return lseDone
				}
			}
		case strings.HasPrefix(line, lseRule):
			return lseElaboration
		}
	}
	return lseDone
}

// elaboration asocia cada línea entre dos "---" al elemento actual.
func (m *lseMachine) elaboration() lseState {
	item := strings.TrimRightFunc(m.item, unicode.IsSpace)
	for line := range m.ls.All() {
		if strings.HasPrefix(line, lseRule) {
			return lseInSection
		}
		if !m.result(fact.KV(fact.KeyLSEResult, m.section), fact.KV(item, line)) {
			return lseDone
		}
	}
	return lseDone
}
