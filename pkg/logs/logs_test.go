package logs

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := newMultiHandler([]slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})
	log := slog.New(h).With("gate", "north")

	log.Debug("scan buffered")
	log.Warn("sync failed")

	if !strings.Contains(debugBuf.String(), "scan buffered") || !strings.Contains(debugBuf.String(), "sync failed") {
		t.Errorf("debug output missing records: %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "scan buffered") {
		t.Errorf("warn output got a debug record: %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "gate=north") {
		t.Errorf("attrs not propagated: %q", warnBuf.String())
	}
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("multi handler should be enabled when any child is")
	}
}

func TestNewMultiHandlerSingle(t *testing.T) {
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if got := newMultiHandler([]slog.Handler{inner}); got != inner {
		t.Error("single handler should be returned unwrapped")
	}
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(contextHandler{slog.NewTextHandler(&buf, nil)}).With("component", "gate")

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-42"})
	log.InfoContext(ctx, "tap recorded")
	log.Info("no request")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "request_id=req-42") || !strings.Contains(lines[0], "component=gate") {
		t.Errorf("first line = %q", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("background line carries request id: %q", lines[1])
	}
}

func TestLocalHandlerFormat(t *testing.T) {
	tests := []struct {
		env, format string
		wantText    bool
	}{
		{"development", "text", true},
		{"development", "json", false},
		{"production", "text", false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		cfg := &config.Config{}
		cfg.Server.Environment = tt.env
		cfg.Logging.Format = tt.format

		slog.New(localHandler(&buf, slog.LevelInfo, cfg)).Info("gate open")
		isJSON := strings.HasPrefix(buf.String(), "{")
		if isJSON == tt.wantText {
			t.Errorf("%s/%s: output %q", tt.env, tt.format, buf.String())
		}
	}
}

func TestLocalWriterDefaultsToStdout(t *testing.T) {
	if w := localWriter(config.OutputConfig{}); w != os.Stdout {
		t.Errorf("localWriter() = %v, want stdout", w)
	}
	if w := localWriter(config.OutputConfig{Loki: config.LokiConfig{Enabled: true}}); w != nil {
		t.Errorf("loki only should have no local writer, got %v", w)
	}
}
