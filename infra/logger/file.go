package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	outMu sync.RWMutex
	out   io.Writer = os.Stdout
)

func output() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return out
}

// SetOutput redirects loggers created afterwards to w. A nil w restores
// stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// OpenRotatingFile returns a size-rotated log file. Sizes are in megabytes
// and ages in days.
func OpenRotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}, nil
}
