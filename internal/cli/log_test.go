package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		debug   bool
		wantLog bool
	}{
		{"info at info level", LogInfo, false, true},
		{"debug at info level", LogInfo, true, false},
		{"debug at debug level", LogDebug, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			if tt.debug {
				logger.Debug("joint created", "id", "root.0-root.1")
			} else {
				logger.Info("cluster steady", "entity", "root")
			}
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("a bare context should fall back to log.Default")
	}

	var buf bytes.Buffer
	logger := newLogger(&buf, LogInfo)
	ctx := withLogger(context.Background(), logger)
	if loggerFromContext(ctx) != logger {
		t.Fatal("loggerFromContext should return the attached logger")
	}
}

func TestProgressTicks(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.ticks("simulated", 1200, "run", "abc")

	out := buf.String()
	for _, want := range []string{"simulated", "ticks=1,200", "run=abc", "rate="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestRunLogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, LogInfo))
	cfg := config.Default()
	cfg.EntityCounts = config.Uniform(3)

	c := New(io.Discard, LogInfo)
	if err := c.runRun(ctx, cfg, runOpts{ticks: 5, mode: "grow"}); err != nil {
		t.Fatalf("runRun: %v", err)
	}
	if !strings.Contains(buf.String(), "ticks=5") {
		t.Errorf("log %q should report the simulated ticks", buf.String())
	}
}
