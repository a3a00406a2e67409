// Package pdaltest installs a scripted stand-in for the pdal executable so
// tests can exercise the command-line adapter without PDAL installed.
package pdaltest

import (
	"embed"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

//go:embed testdata/*.json
var fixtures embed.FS

// Fixture names understood by the fake.
const (
	Pipeline = "pipeline.json"
	Stats    = "stats.json"
	Schema   = "schema.json"
	Summary  = "summary.json"
)

const script = `#!/bin/sh
dir='%DIR%'
echo "$*" >> "$dir/calls.log"
if [ -f "$dir/fail" ]; then
  cat "$dir/fail" >&2
  exit 1
fi
case "$1" in
  --version)
    printf -- '--------\npdal 2.6.3 (git-version: Release)\n--------\n'
    ;;
  pipeline)
    cat > "$dir/stdin.json"
    fixture="$dir/pipeline.json"
    if grep -q filters.stats "$dir/stdin.json"; then
      fixture="$dir/stats.json"
    fi
    while [ $# -gt 0 ]; do
      if [ "$1" = "--metadata" ]; then
        cp "$fixture" "$2" || exit 1
      fi
      shift
    done
    ;;
  info)
    case "$*" in
      *--summary*) cat "$dir/summary.json" ;;
      *--schema*) cat "$dir/schema.json" ;;
      *) echo "unsupported info mode" >&2; exit 2 ;;
    esac
    ;;
  *)
    echo "unsupported command $1" >&2
    exit 2
    ;;
esac
`

// Fake is an installed fake pdal executable.
type Fake struct {
	Binary string
	dir    string
	t      testing.TB
}

// Install writes the fake executable and the autzen fixtures to a
// temporary directory.
func Install(t testing.TB) *Fake {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake pdal requires a POSIX shell")
	}

	dir := t.TempDir()
	entries, err := fixtures.ReadDir("testdata")
	if err != nil {
		t.Fatalf("read fixtures: %v", err)
	}
	for _, e := range entries {
		data, err := fixtures.ReadFile("testdata/" + e.Name())
		if err != nil {
			t.Fatalf("read fixture %s: %v", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", e.Name(), err)
		}
	}

	bin := filepath.Join(dir, "pdal")
	body := strings.ReplaceAll(script, "%DIR%", dir)
	if err := os.WriteFile(bin, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake pdal: %v", err)
	}

	return &Fake{Binary: bin, dir: dir, t: t}
}

// SetFixture replaces the output the fake returns for one command.
func (f *Fake) SetFixture(name string, data []byte) {
	f.t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0o644); err != nil {
		f.t.Fatalf("write fixture %s: %v", name, err)
	}
}

// Fixture returns the current content of a fixture.
func (f *Fake) Fixture(name string) []byte {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		f.t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// Fail makes every later invocation exit 1 with message on stderr.
func (f *Fake) Fail(message string) {
	f.SetFixture("fail", []byte(message+"\n"))
}

// Calls returns the argument lists of every invocation so far.
func (f *Fake) Calls() []string {
	data, err := os.ReadFile(filepath.Join(f.dir, "calls.log"))
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// LastPipeline returns the pipeline JSON most recently sent on stdin.
func (f *Fake) LastPipeline() string {
	data, err := os.ReadFile(filepath.Join(f.dir, "stdin.json"))
	if err != nil {
		return ""
	}
	return string(data)
}
