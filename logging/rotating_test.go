package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	// 2025-10-07 is in ISO week 41
	if got := weekKey(time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)); got != "2025-W41" {
		t.Errorf("weekKey = %s, want 2025-W41", got)
	}
	// 2027-01-01 still belongs to 2026-W53
	if got := weekKey(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2026-W53" {
		t.Errorf("weekKey = %s, want 2026-W53", got)
	}
}

func TestRotatingLogger_WritesCurrentWeek(t *testing.T) {
	dir := t.TempDir()
	rl, err := OpenRotatingLogger(dir, 1, 0)
	if err != nil {
		t.Fatalf("OpenRotatingLogger: %v", err)
	}

	if _, err := rl.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(dir, "registry-"+weekKey(time.Now())+".log")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	if string(content) != "hello\n" {
		t.Errorf("unexpected content %q", content)
	}

	if _, err := rl.Write([]byte("late")); err == nil {
		t.Error("expected an error writing after Close")
	}
}

func TestRotatingLogger_SizeRotation(t *testing.T) {
	dir := t.TempDir()
	rl := newRotatingLogger(dir, 1, 10)
	fixed := time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	defer rl.Close()

	for _, chunk := range []string{"12345678", "abcdefgh", "ABCDEFGH"} {
		if _, err := rl.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write(%q): %v", chunk, err)
		}
	}

	for name, want := range map[string]string{
		"registry-2025-W41.log":    "12345678",
		"registry-2025-W41_01.log": "abcdefgh",
		"registry-2025-W41_02.log": "ABCDEFGH",
	} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if string(content) != want {
			t.Errorf("%s = %q, want %q", name, content, want)
		}
	}
}

func TestRotatingLogger_WeekChange(t *testing.T) {
	dir := t.TempDir()
	rl := newRotatingLogger(dir, 1, 0)
	now := time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	defer rl.Close()

	rl.Write([]byte("week 41"))
	now = now.Add(7 * 24 * time.Hour)
	rl.Write([]byte("week 42"))

	for _, name := range []string{"registry-2025-W41.log", "registry-2025-W42.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestRotatingLogger_Cleanup(t *testing.T) {
	dir := t.TempDir()
	rl := newRotatingLogger(dir, 1, 0)

	old := filepath.Join(dir, "registry-2020-W01.log")
	recent := filepath.Join(dir, "registry-2099-W01.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, recent, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-30 * 24 * time.Hour)
	os.Chtimes(old, stale, stale)
	os.Chtimes(other, stale, stale)

	removed, err := rl.cleanup()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d files, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired log file survived cleanup")
	}
	for _, p := range []string{recent, other} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should be kept: %v", filepath.Base(p), err)
		}
	}
}

func TestOpenRotatingLogger_BadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	os.WriteFile(file, nil, 0o644)

	_, err := OpenRotatingLogger(filepath.Join(file, "logs"), 1, 0)
	if err == nil || !strings.Contains(err.Error(), "log directory") {
		t.Errorf("expected a directory error, got %v", err)
	}
}
