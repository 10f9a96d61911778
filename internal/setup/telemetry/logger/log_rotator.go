package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is a log file writer that keeps the file near maxLines lines.
// Lines are mirrored into a ring buffer and once the file holds twice the
// limit it is rewritten with only the newest maxLines.
type LogRotator struct {
	mu       sync.Mutex
	file     io.WriteCloser
	path     string
	buffer   *RingBuffer
	inFile   int
	reopener func(path string) (io.WriteCloser, error)
}

// NewLogRotator wraps an open log file.
func NewLogRotator(file io.WriteCloser, maxLines int, path string) *LogRotator {
	return &LogRotator{
		file:   file,
		path:   path,
		buffer: NewRingBuffer(maxLines),
		reopener: func(path string) (io.WriteCloser, error) {
			return os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		},
	}
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.buffer.Add(string(line))
		w.inFile++
	}

	if w.inFile >= 2*w.buffer.Cap() {
		if err := w.compact(); err != nil {
			return n, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	return n, nil
}

// compact replaces the file with the buffered lines and reopens it for appending.
func (w *LogRotator) compact() error {
	lines := w.buffer.Lines()

	temp, err := os.CreateTemp(filepath.Dir(w.path), "rotate-*.log")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	_, err = temp.WriteString(strings.Join(lines, "\n") + "\n")
	if err == nil {
		err = temp.Sync()
	}
	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()

	if err := os.Rename(tempPath, w.path); err != nil {
		return err
	}

	file, err := w.reopener(w.path)
	if err != nil {
		return err
	}

	w.file = file
	w.inFile = len(lines)

	return nil
}
