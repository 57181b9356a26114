// Package accesslog appends one line per registry request to a log file.
package accesslog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
)

// DefaultFile is used when no path is configured.
const DefaultFile = "siret_api_logs.log"

// FileLog writes access lines to a file. The file is opened and closed on every
// call so external rotation needs no signal.
type FileLog struct {
	path string
	mu   sync.Mutex
}

// New returns a FileLog appending to path, or DefaultFile when path is empty.
func New(path string) *FileLog {
	if path == "" {
		path = DefaultFile
	}
	return &FileLog{path: path}
}

// Path returns the file written by Record.
func (l *FileLog) Path() string {
	return l.path
}

// Record appends "<host> <METHOD> <status>  | route : <path>". Status 200 is
// logged at info level, anything else at warning level.
func (l *FileLog) Record(host, method string, status int, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open access log: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, nil))
	level := slog.LevelInfo
	if status != http.StatusOK {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, Line(host, method, status, path))

	if err := f.Close(); err != nil {
		return fmt.Errorf("close access log: %w", err)
	}
	return nil
}

// Line formats the access message.
func Line(host, method string, status int, path string) string {
	return fmt.Sprintf("%s %-6s %d  | route : %s", host, method, status, path)
}
