package linestream

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

func collect(s *Stream) []string {
	var out []string
	for line := range s.All() {
		out = append(out, line)
	}
	return out
}

func TestNextKeepsTerminators(t *testing.T) {
	s := FromString("uno\ndos\r\n\ntres")

	got := collect(s)
	want := []string{"uno\n", "dos\r\n", "\n", "tres"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if s.LinesRead() != 4 {
		t.Fatalf("LinesRead = %d, want 4", s.LinesRead())
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("Next after exhaustion should report false")
	}
}

func TestPushBackThenNextReturnsSameLine(t *testing.T) {
	s := FromString("a\nb\n")

	first, _ := s.Next()
	s.PushBack(first)
	again, ok := s.Next()
	if !ok || again != first {
		t.Fatalf("Next after PushBack = %q, %v; want %q", again, ok, first)
	}
	next, _ := s.Next()
	if next != "b\n" {
		t.Fatalf("stream order broken, got %q", next)
	}
}

func TestPushBackAcceptsArbitraryLine(t *testing.T) {
	s := FromString("")
	s.PushBack("inventada\n")
	if !s.HasMore() {
		t.Fatalf("HasMore should see pushed line")
	}
	if line, _ := s.Next(); line != "inventada\n" {
		t.Fatalf("got %q", line)
	}
}

func TestDoublePushBackPanics(t *testing.T) {
	s := FromString("a\nb\n")
	line, _ := s.Next()
	s.PushBack(line)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrPushbackOverflow) {
			t.Fatalf("expected ErrPushbackOverflow panic, got %v", r)
		}
	}()
	s.PushBack(line)
}

func TestPeekCountsAsPending(t *testing.T) {
	s := FromString("a\nb\n")
	s.Next()
	s.Peek()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("PushBack after Peek should panic")
		}
	}()
	s.PushBack("a\n")
}

func TestPeekIsIdempotent(t *testing.T) {
	s := FromString("x\ny\n")
	for i := 0; i < 3; i++ {
		if got := s.Peek(); got != "x\n" {
			t.Fatalf("Peek #%d = %q", i, got)
		}
	}
	if line, _ := s.Next(); line != "x\n" {
		t.Fatalf("Next after Peek = %q", line)
	}
	if got := s.Peek(); got != "y\n" {
		t.Fatalf("Peek after Next = %q", got)
	}
}

func TestPeekAtEndReturnsEmpty(t *testing.T) {
	s := FromString("solo\n")
	s.Next()
	if got := s.Peek(); got != "" {
		t.Fatalf("Peek at EOF = %q", got)
	}
	if s.HasMore() {
		t.Fatalf("HasMore at EOF should be false")
	}
}

func TestFindUntil(t *testing.T) {
	s := FromString("ruido\nPORT STATE SERVICE\n22/tcp open ssh\n")

	line, ok := s.FindUntil(func(l string) bool { return strings.HasPrefix(l, "PORT") })
	if !ok || line != "PORT STATE SERVICE\n" {
		t.Fatalf("FindUntil = %q, %v", line, ok)
	}
	if next, _ := s.Next(); next != "22/tcp open ssh\n" {
		t.Fatalf("FindUntil consumed too much, next = %q", next)
	}

	if _, ok := s.FindUntil(func(string) bool { return true }); ok {
		t.Fatalf("FindUntil on exhausted stream should fail")
	}
}

func TestSearchReturnsGroups(t *testing.T) {
	re := regexp.MustCompile(`from (\S+) \((\d+\.\d+\.\d+\.\d+)\)`)
	s := FromString("PING host\n64 bytes from gw (10.0.0.1): icmp_seq=1\ntail\n")

	m, ok := s.Search(re)
	if !ok {
		t.Fatalf("Search found nothing")
	}
	if diff := cmp.Diff([]string{"from gw (10.0.0.1)", "gw", "10.0.0.1"}, m); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if rest := collect(s); len(rest) != 1 || rest[0] != "tail\n" {
		t.Fatalf("unexpected remainder %q", rest)
	}
	if _, ok := s.Search(re); ok {
		t.Fatalf("Search on exhausted stream should fail")
	}
}

func TestAllCanBeResumed(t *testing.T) {
	s := FromString("1\n2\n3\n")
	for line := range s.All() {
		if line == "2\n" {
			s.PushBack(line)
			break
		}
	}
	if diff := cmp.Diff([]string{"2\n", "3\n"}, collect(s)); diff != "" {
		t.Fatalf("resume mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformAppliesToSourceLines(t *testing.T) {
	s := FromString("a\nb\n", WithTransform(strings.ToUpper))
	line, _ := s.Next()
	if line != "A\n" {
		t.Fatalf("transform not applied: %q", line)
	}
	s.PushBack("z\n")
	if line, _ := s.Next(); line != "z\n" {
		t.Fatalf("pushed line should not be transformed: %q", line)
	}
}

func TestReadErrorIsReported(t *testing.T) {
	boom := errors.New("boom")
	s := New(iotest.ErrReader(boom))
	if _, ok := s.Next(); ok {
		t.Fatalf("expected no lines")
	}
	if !errors.Is(s.Err(), boom) {
		t.Fatalf("Err = %v, want boom", s.Err())
	}
}
