package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{" Error ", ERROR},
		{"nonsense", INFO},
		{"", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(WARN)
	log.SetConsole(&buf)

	log.Debug("test", "dropped")
	log.Info("test", "dropped")
	log.Warn("test", "kept warn")
	log.Error("test", "kept error")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("expected sub-threshold lines to be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "kept warn") || !strings.Contains(out, "kept error") {
		t.Fatalf("expected threshold lines to be kept, got:\n%s", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(DEBUG)
	log.SetConsole(&buf)

	log.InfoF("bot", "Started", map[string]interface{}{
		"workers": 4,
		"queue":   100,
	})

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "[INFO] bot: Started") {
		t.Fatalf("unexpected console line: %s", line)
	}
	// Field keys render sorted.
	if !strings.HasSuffix(line, "{queue=100, workers=4}") {
		t.Fatalf("unexpected fields rendering: %s", line)
	}
}

func TestFileSinkWritesJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.log")
	log := New(DEBUG)
	log.SetConsole(nil)
	if err := log.EnableFile(path, 20, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Info("bot", "first")
	log.ErrorF("dispatch", "second", map[string]interface{}{"error": "boom"})
	log.Close()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer file.Close()

	var entries []entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("log line does not decode: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Component != "bot" || entries[0].Message != "first" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Fields["error"] != "boom" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestFileRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bot.log")
	log := New(DEBUG)
	log.SetConsole(nil)
	if err := log.EnableFile(path, 1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Limit is 1MB; push well past it.
	payload := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		log.Info("test", payload)
	}
	log.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read log dir: %v", err)
	}
	rotated := 0
	for _, ent := range entries {
		if strings.HasPrefix(ent.Name(), "bot.log.") {
			rotated++
		}
	}
	if rotated == 0 {
		t.Fatal("expected at least one rotated file")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat active log: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Fatalf("active log exceeds size limit: %d bytes", info.Size())
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	t.Parallel()

	// Must not panic and must not write anywhere.
	log := Discard()
	log.Error("test", "ignored")
	log.ErrorF("test", "ignored", map[string]interface{}{"k": "v"})
}
