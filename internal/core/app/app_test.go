package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scan-facts/internal/adapters/factio"
	"scan-facts/internal/core/fact"
	"scan-facts/internal/core/linestream"
	"scan-facts/internal/core/parsers"
	"scan-facts/internal/platform/config"
	apperrors "scan-facts/internal/platform/errors"
)

const niktoCapture = "+ Target Hostname: 10.0.0.5\n+ Target Port: 80\n+ Cookie PHPSESSID created\n+ End Time: now\n"

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Host = "kali"
	return cfg
}

// crashParser emite un hecho y entra en pánico en la segunda línea.
type crashParser struct{}

func (crashParser) Name() string { return "crash" }

func (crashParser) Parse(ls *linestream.Stream, env parsers.Env) iter.Seq[fact.Fact] {
	return func(yield func(fact.Fact) bool) {
		n := 0
		for range ls.All() {
			if n == 1 {
				panic("estado inesperado")
			}
			n++
			if !yield(fact.HostScoped(env.HostAddress(), fact.KV(fact.KeySUIDFile, "/bin/su"))) {
				return
			}
		}
	}
}

func crashCatalog() *parsers.Catalog {
	catalog := parsers.NewCatalog()
	catalog.Register(parsers.Definition{Name: "crash", Parser: crashParser{}})
	return catalog
}

func TestResolveParser(t *testing.T) {
	t.Parallel()
	catalog := parsers.NewCatalog()

	def, err := ResolveParser(catalog, "Nikto", "nmap -sV 10.0.0.1")
	if err != nil || def.Name != "nikto" {
		t.Fatalf("explicit parser should win, got %v, %v", def, err)
	}

	def, err = ResolveParser(catalog, "", "sudo nmap -sV 10.0.0.1")
	if err != nil || def.Name != "nmap" {
		t.Fatalf("command line should select nmap, got %v, %v", def, err)
	}

	if _, err := ResolveParser(catalog, "masscan", ""); !apperrors.IsUnknownParser(err) {
		t.Fatalf("expected unknown parser error, got %v", err)
	}
	if _, err := ResolveParser(catalog, "", "whoami"); !apperrors.IsNoParserMatch(err) {
		t.Fatalf("expected no match error, got %v", err)
	}
	if _, err := ResolveParser(catalog, "", ""); !apperrors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunFromStdin(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Command = "nikto -h http://10.0.0.5/"
	var out bytes.Buffer

	res, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{In: strings.NewReader(niktoCapture), Out: &out})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Parser != "nikto" || res.Stats.Facts != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got, want := out.String(), "remote\tipv4\t10.0.0.5\tport\t80\tnikto-vuln\t+ Cookie PHPSESSID created\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestRunBatchFilesToOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "find-1.txt")
	second := filepath.Join(dir, "find-2.txt")
	if err := os.WriteFile(first, []byte("/usr/bin/sudo\n/usr/bin/passwd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("/usr/bin/passwd\n/usr/bin/mount\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Parser = "find"
	cfg.Dedupe = "exact"
	cfg.Inputs = []string{first, second}
	cfg.Output = filepath.Join(dir, "facts.tsv")
	cfg.Metrics = filepath.Join(dir, "metrics.json")

	res, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stats.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %+v", res.Stats)
	}

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	want := "remote\thost\tkali\tlocal\tsuidfile\t/usr/bin/sudo\n" +
		"remote\thost\tkali\tlocal\tsuidfile\t/usr/bin/passwd\n" +
		"remote\thost\tkali\tlocal\tsuidfile\t/usr/bin/mount\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(cfg.Metrics); err != nil {
		t.Fatalf("metrics report should be written: %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Parser = "find"
	cfg.Inputs = []string{filepath.Join(t.TempDir(), "missing.txt")}
	if _, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected an error for a missing capture")
	}
}

func TestRunRejectsRepeatedStdin(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Parser = "find"
	cfg.Inputs = []string{"-", filepath.Join(t.TempDir(), "other.txt"), "-"}
	var out bytes.Buffer

	_, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{In: strings.NewReader("/bin/su\n"), Out: &out})
	if !apperrors.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if ctx := apperrors.GetContext(err); ctx["field"] != "inputs" {
		t.Fatalf("error should point at inputs, got %v", ctx)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", out.String())
	}
}

type failingCloser struct {
	bytes.Buffer
}

func (*failingCloser) Close() error { return errors.New("disco lleno") }

func TestRunReportsOutputCloseError(t *testing.T) {
	original := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return &failingCloser{}, nil }
	defer func() { createOutput = original }()

	cfg := testConfig()
	cfg.Parser = "find"
	cfg.Output = "facts.tsv"

	_, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{In: strings.NewReader("/bin/su\n")})
	if err == nil || !strings.Contains(err.Error(), "disco lleno") {
		t.Fatalf("close error must be returned, got %v", err)
	}
}

func TestRunJSONLLegacyScope(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Parser = "ip-neigh"
	cfg.Format = "jsonl"
	cfg.Scope = "10.0.2.0/24"
	var out bytes.Buffer

	res, err := Run(context.Background(), &cfg, parsers.NewCatalog(), Streams{
		In:  strings.NewReader("10.0.2.2 dev eth0 REACHABLE\n172.16.0.1 dev eth1 STALE\n"),
		Out: &out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stats.Facts != 1 || res.Stats.Filtered != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}

	r := factio.NewJSONLReader(&out)
	f, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if f.Address.Value != "10.0.2.2" || r.Header().Parser != "ip-neigh" {
		t.Fatalf("unexpected fact %+v with header %+v", f, r.Header())
	}
}

func TestRunParserFailurePolicy(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Parser = "crash"
	var out bytes.Buffer

	res, err := Run(context.Background(), &cfg, crashCatalog(), Streams{In: strings.NewReader("a\nb\nc\n"), Out: &out})
	if err != nil {
		t.Fatalf("tolerant run must not fail, got %v", err)
	}
	if !apperrors.IsParserFailure(res.Failure) {
		t.Fatalf("expected the failure to be reported, got %v", res.Failure)
	}
	if got, want := out.String(), "remote\thost\tkali\tlocal\tsuidfile\t/bin/su\n"; got != want {
		t.Fatalf("facts before the failure must be kept, got %q", got)
	}

	cfg.Strict = true
	out.Reset()
	if _, err := Run(context.Background(), &cfg, crashCatalog(), Streams{In: strings.NewReader("a\nb\n"), Out: &out}); !apperrors.IsParserFailure(err) {
		t.Fatalf("strict run must fail, got %v", err)
	}
}

func TestFilterSwallowsParserFailure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := Filter(context.Background(), crashCatalog(), "crash", "kali", "", strings.NewReader("a\nb\n"), &out); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got, want := out.String(), "remote\thost\tkali\tlocal\tsuidfile\t/bin/su\n"; got != want {
		t.Fatalf("Filter() output = %q, want %q", got, want)
	}
}

func TestFilterWritesLegacyBytes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Filter(context.Background(), parsers.NewCatalog(), "uname", "kali", "uname -a",
		strings.NewReader("Linux kali 6.1.0-kali9-amd64 #1 SMP x86_64 GNU/Linux\n"), &out)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	want := "remote\thost\tkali\tlocal\tuname_result\tOS\tLinux\n" +
		"remote\thost\tkali\tlocal\tuname_result\thostname\tkali\n" +
		"remote\thost\tkali\tlocal\tuname_result\tversion\t6.1.0-kali9-amd64\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	if err := Filter(context.Background(), parsers.NewCatalog(), "masscan", "kali", "", strings.NewReader(""), &out); !apperrors.IsUnknownParser(err) {
		t.Fatalf("expected unknown parser error, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tsv := "remote\tipv4\t10.0.0.5\tport\t22\tuser\troot\n\nremote\tipv4\t10.0.0.5\tport\t22\tuser\troot\tpass\ttoor\n"
	var jsonl bytes.Buffer
	n, err := Convert(factio.FormatTSV, factio.FormatJSONL, factio.NewlinesNormalized, strings.NewReader(tsv), &jsonl)
	if err != nil || n != 2 {
		t.Fatalf("Convert() = %d, %v", n, err)
	}

	var back bytes.Buffer
	n, err = Convert(factio.FormatJSONL, factio.FormatTSV, factio.NewlinesNormalized, &jsonl, &back)
	if err != nil || n != 2 {
		t.Fatalf("Convert() back = %d, %v", n, err)
	}
	if diff := cmp.Diff(strings.ReplaceAll(tsv, "\n\n", "\n"), back.String()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
