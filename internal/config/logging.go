package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// maxLogFileMB is the size at which the daemon log rotates.
const maxLogFileMB = 10

// NewLogWriter opens a size-rotated log file in dir, keeping at most
// maxFiles old files. Caller must close it.
func NewLogWriter(dir string, maxFiles int) (io.WriteCloser, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, "searchedia-sync.log"),
		MaxSize:    maxLogFileMB,
		MaxBackups: maxFiles,
		LocalTime:  true,
	}, nil
}
