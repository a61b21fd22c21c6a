// Package notelog reads and appends the append-only note log.
//
// The log is plain markdown: one note per line, optionally prefixed
// with a [C]/[I]/[N] tag. Section headers set the ambient category for
// the untagged lines that follow; divider lines are structural noise.
package notelog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwhuang/recall/internal/model"
	"github.com/cwhuang/recall/internal/priority"
)

// Entry is one parsed note line.
type Entry struct {
	Content    string
	Priority   model.Priority
	Explicit   bool
	Category   string
	Source     string
	LineNumber int
}

// Log wraps one note log file.
type Log struct {
	path   string
	parser *priority.Parser
}

// New opens a log handle; the file itself may not exist yet.
func New(path string) *Log {
	return &Log{path: path, parser: priority.NewParser()}
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// Read parses every note line. A missing file yields zero entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open note log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	var category string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "#"):
			category = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}

		parsed := l.parser.Parse(line)
		entries = append(entries, Entry{
			Content:    parsed.Content,
			Priority:   parsed.Priority,
			Explicit:   parsed.Explicit,
			Category:   category,
			Source:     l.path,
			LineNumber: lineNum,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan note log: %w", err)
	}
	return entries, nil
}

// Append writes one tagged note line, creating the file and its
// directory as needed.
func (l *Log) Append(content string, pri model.Priority) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open note log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", l.parser.AddTag(content, pri)); err != nil {
		return fmt.Errorf("append note: %w", err)
	}
	return nil
}

// ReadAll returns the raw log contents, or "" when the file is absent.
func (l *Log) ReadAll() (string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
