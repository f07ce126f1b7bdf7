package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.in, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.in)
			if got := levelFromEnv(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

type recordingSink struct {
	min     slog.Level
	handled int
	fail    bool
}

func (r *recordingSink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.min
}

func (r *recordingSink) Handle(_ context.Context, _ slog.Record) error {
	r.handled++
	if r.fail {
		return errors.New("sink down")
	}
	return nil
}

func (r *recordingSink) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recordingSink) WithGroup(string) slog.Handler      { return r }

func TestMultiHandlerLevelRouting(t *testing.T) {
	stdout := &recordingSink{min: slog.LevelInfo}
	pg := &recordingSink{min: slog.LevelError}
	m := NewMultiHandler(stdout, pg)

	ctx := context.Background()
	info := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	errRec := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)

	if err := m.Handle(ctx, info); err != nil {
		t.Fatal(err)
	}
	if err := m.Handle(ctx, errRec); err != nil {
		t.Fatal(err)
	}

	if stdout.handled != 2 {
		t.Errorf("stdout handled %d records, want 2", stdout.handled)
	}
	if pg.handled != 1 {
		t.Errorf("pg sink handled %d records, want 1 (errors only)", pg.handled)
	}
}

func TestMultiHandlerFailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := &recordingSink{min: slog.LevelInfo, fail: true}
	healthy := &recordingSink{min: slog.LevelInfo}
	m := NewMultiHandler(broken, healthy)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	if err := m.Handle(context.Background(), rec); err == nil {
		t.Error("expected the sink error to surface")
	}
	if healthy.handled != 1 {
		t.Errorf("healthy sink handled %d records, want 1", healthy.handled)
	}
}
