package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/config"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/observability"
)

func quietCtx() context.Context {
	return withLogger(context.Background(), newLogger(io.Discard, LogInfo))
}

func TestParseCounts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"single level", "3", "[3]", false},
		{"two levels", "2, 3", "[[3], [3]]", false},
		{"not a number", "3,x", "", true},
		{"zero particles", "0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCounts(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCounts(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("parseCounts(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte("seed = 5\nradius = 20\nentity_counts = [4]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cf configFlags
	cmd := &cobra.Command{}
	cf.bind(cmd)
	if err := cmd.ParseFlags([]string{"--config", path, "--seed", "9"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := cf.load(cmd)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Seed != 9 {
		t.Errorf("Seed = %d, want flag value 9", cfg.Seed)
	}
	if cfg.Radius != 20 {
		t.Errorf("Radius = %g, want file value 20", cfg.Radius)
	}
	if cfg.EntityCounts.String() != "[4]" {
		t.Errorf("EntityCounts = %s, want [4]", cfg.EntityCounts)
	}
}

func TestConfigFlagsDefaults(t *testing.T) {
	var cf configFlags
	cmd := &cobra.Command{}
	cf.bind(cmd)
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	cfg, err := cf.load(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EntityCounts.String() != config.Default().EntityCounts.String() {
		t.Errorf("EntityCounts = %s", cfg.EntityCounts)
	}
}

func TestConfigFlagsMissingFile(t *testing.T) {
	var cf configFlags
	cmd := &cobra.Command{}
	cf.bind(cmd)
	if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}); err != nil {
		t.Fatal(err)
	}
	if _, err := cf.load(cmd); !emerr.Is(err, emerr.ErrCodeFileNotFound) {
		t.Errorf("load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("cacheDir() = %q", dir)
	}
}

func TestValidateFormat(t *testing.T) {
	if err := validateFormat("svg", formatSVG, formatText); err != nil {
		t.Errorf("svg should be valid: %v", err)
	}
	if err := validateFormat("png", formatSVG, formatText); err == nil {
		t.Error("png should be rejected")
	}
}

func TestGrowthMode(t *testing.T) {
	for _, mode := range []string{"", "grow", "ring"} {
		if _, err := (&runOpts{mode: mode}).growthMode(); err != nil {
			t.Errorf("mode %q: %v", mode, err)
		}
	}
	if _, err := (&runOpts{mode: "spiral"}).growthMode(); err == nil {
		t.Error("unknown mode should be rejected")
	}
}

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.EntityCounts = config.Uniform(3)
	return cfg
}

func TestRunRenderSVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "scene.svg")
	c := New(io.Discard, LogInfo)
	opts := renderOpts{
		run:     runOpts{ticks: 20, mode: "grow"},
		output:  out,
		format:  formatSVG,
		width:   400,
		reveal:  -1,
		noCache: true,
	}
	if err := c.runRender(quietCtx(), smallConfig(), opts); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Errorf("output is not SVG: %.40s", data)
	}
}

func TestRunRenderText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.txt")
	c := New(io.Discard, LogInfo)
	opts := renderOpts{
		run:     runOpts{ticks: 20},
		output:  out,
		format:  formatText,
		width:   defaultWidth,
		reveal:  0,
		noCache: true,
	}
	if err := c.runRender(quietCtx(), smallConfig(), opts); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n"); len(lines) != defaultTextRows {
		t.Errorf("got %d rows, want %d", len(lines), defaultTextRows)
	}
}

type cacheRecorder struct {
	mu                sync.Mutex
	hits, misses, set int
}

func (r *cacheRecorder) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *cacheRecorder) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *cacheRecorder) OnCacheSet(context.Context, string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set++
}

func TestRunRenderUsesCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	rec := &cacheRecorder{}
	observability.SetCacheHooks(rec)
	t.Cleanup(observability.Reset)

	dir := t.TempDir()
	c := New(io.Discard, LogInfo)
	opts := renderOpts{run: runOpts{ticks: 10}, format: formatSVG, width: 300, reveal: -1}

	opts.output = filepath.Join(dir, "first.svg")
	if err := c.runRender(quietCtx(), smallConfig(), opts); err != nil {
		t.Fatal(err)
	}
	opts.output = filepath.Join(dir, "second.svg")
	if err := c.runRender(quietCtx(), smallConfig(), opts); err != nil {
		t.Fatal(err)
	}

	if rec.misses != 1 || rec.set != 1 || rec.hits != 1 {
		t.Errorf("cache hooks = %d misses, %d sets, %d hits; want 1 each", rec.misses, rec.set, rec.hits)
	}
	first, _ := os.ReadFile(filepath.Join(dir, "first.svg"))
	second, _ := os.ReadFile(filepath.Join(dir, "second.svg"))
	if !bytes.Equal(first, second) {
		t.Error("cached render differs from the fresh one")
	}
}

func TestRunTreeDOT(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tree.dot")
	c := New(io.Discard, LogInfo)
	opts := treeOpts{run: runOpts{}, output: out, format: formatDOT, detailed: true, noCache: true}
	if err := c.runTree(quietCtx(), smallConfig(), opts); err != nil {
		t.Fatalf("runTree() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"digraph G {", `"root" -> "root.2"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("DOT missing %q", want)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"run", "render", "tree", "watch", "config", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCacheClearCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	store, err := openStore()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"scene:a", "scene:b", "tree:a"} {
		if err := store.Set(ctx, key, []byte("12345"), 0); err != nil {
			t.Fatal(err)
		}
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	usage, err := store.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 0 {
		t.Errorf("usage after clear = %v, want empty", usage)
	}
}

func TestFlagCompletions(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"render", "--format", ""}, []string{"svg", "txt"}},
		{[]string{"tree", "--format", ""}, []string{"svg", "dot"}},
		{[]string{"watch", "--mode", ""}, []string{"grow", "ring"}},
	}
	for _, tt := range tests {
		root := New(io.Discard, LogInfo).RootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{cobra.ShellCompRequestCmd}, tt.args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		got := strings.Split(strings.TrimSpace(out.String()), "\n")
		// The last line is the completion directive.
		if len(got) == 0 || !strings.HasPrefix(got[len(got)-1], ":") {
			t.Fatalf("%v: unexpected output %q", tt.args, out.String())
		}
		got = got[:len(got)-1]
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%v: completions = %v, want %v", tt.args, got, tt.want)
		}
	}
}
