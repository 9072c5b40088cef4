package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel maps a config string to a Level; unknown values fall back to
// INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

type entry struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger is a leveled logger writing human-readable lines to a console
// writer and, when enabled, JSON lines to a size-rotated file. One Logger is
// constructed per bot and passed into the components that need it.
type Logger struct {
	mu           sync.Mutex
	level        Level
	console      io.Writer
	file         *os.File
	filePath     string
	maxSizeBytes int64
	maxAgeDays   int
}

func New(level Level) *Logger {
	return &Logger{
		level:   level,
		console: os.Stderr,
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{
		level:   ERROR + 1,
		console: io.Discard,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

// EnableFile turns on the JSON file sink. Rotated files older than
// maxAgeDays are removed on enable and after each rotation.
func (l *Logger) EnableFile(path string, maxSizeMB, maxAgeDays int) error {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 3
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	l.filePath = path
	l.maxSizeBytes = int64(maxSizeMB) * 1024 * 1024
	l.maxAgeDays = maxAgeDays
	_ = l.cleanupOldFilesLocked()
	return nil
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
		l.filePath = ""
	}
}

func (l *Logger) Debug(component, message string) {
	l.log(DEBUG, component, message, nil)
}

func (l *Logger) DebugF(component, message string, fields map[string]interface{}) {
	l.log(DEBUG, component, message, fields)
}

func (l *Logger) Info(component, message string) {
	l.log(INFO, component, message, nil)
}

func (l *Logger) InfoF(component, message string, fields map[string]interface{}) {
	l.log(INFO, component, message, fields)
}

func (l *Logger) Warn(component, message string) {
	l.log(WARN, component, message, nil)
}

func (l *Logger) WarnF(component, message string, fields map[string]interface{}) {
	l.log(WARN, component, message, fields)
}

func (l *Logger) Error(component, message string) {
	l.log(ERROR, component, message, nil)
}

func (l *Logger) ErrorF(component, message string, fields map[string]interface{}) {
	l.log(ERROR, component, message, fields)
}

func (l *Logger) log(level Level, component, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	e := entry{
		Level:     levelNames[level],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if l.file != nil {
		if data, err := json.Marshal(e); err == nil {
			_ = l.writeFileLocked(append(data, '\n'))
		}
	}

	var fieldStr string
	if len(fields) > 0 {
		fieldStr = " " + formatFields(fields)
	}
	if l.console != nil {
		fmt.Fprintf(l.console, "[%s] [%s]%s %s%s\n",
			e.Timestamp, e.Level, formatComponent(component), message, fieldStr)
	}
}

func (l *Logger) writeFileLocked(line []byte) error {
	if l.maxSizeBytes > 0 {
		if err := l.rotateIfNeededLocked(int64(len(line))); err != nil {
			return err
		}
	}
	_, err := l.file.Write(line)
	return err
}

func (l *Logger) rotateIfNeededLocked(nextWrite int64) error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size()+nextWrite <= l.maxSizeBytes {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return err
	}
	backupPath := fmt.Sprintf("%s.%s", l.filePath, time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(l.filePath, backupPath); err != nil {
		return err
	}
	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = file
	return l.cleanupOldFilesLocked()
}

func (l *Logger) cleanupOldFilesLocked() error {
	if l.maxAgeDays <= 0 || l.filePath == "" {
		return nil
	}

	dir := filepath.Dir(l.filePath)
	base := filepath.Base(l.filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -l.maxAgeDays)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		// Only rotated files like vkgram.log.20260213-120000 are removed.
		if !strings.HasPrefix(ent.Name(), base+".") {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, ent.Name()))
		}
	}
	return nil
}

func formatComponent(component string) string {
	if component == "" {
		return ""
	}
	return " " + component + ":"
}

func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
