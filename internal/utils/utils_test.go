package utils

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRunCommand(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	out, err := RunCommand(ctx, log, nil, "", "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("RunCommand() = %q, want %q", out, "hello")
	}
}

func TestRunCommand_CWD(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()
	dir := t.TempDir()

	out, err := RunCommand(ctx, log, nil, dir, "pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// on darwin /tmp is a symlink to /private/tmp hence the suffix check
	if !strings.HasSuffix(out, dir) {
		t.Errorf("RunCommand() = %q, want suffix %q", out, dir)
	}
}

func TestRunCommand_Error(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	_, err := RunCommand(ctx, log, nil, "", "false")
	if err == nil {
		t.Fatal("expected error for failing command")
	}
}

func TestRunCommand_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	log := slog.Default()

	_, err := RunCommand(ctx, log, nil, "", "sleep", "10")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunCommand() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
