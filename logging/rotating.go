package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	logFilePrefix = "registry-"
	logFileSuffix = ".log"
)

var numberedLogFile = regexp.MustCompile(`^registry-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer over weekly log files. A week's file is
// split into numbered parts once it reaches maxFileSize, and files older
// than the retention period are removed once a day.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu        sync.Mutex
	file      *os.File
	week      string
	size      int64
	closed    bool
	now       func() time.Time
	sweeping  bool
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// OpenRotatingLogger creates dir if needed, opens the current week's file
// and starts the retention sweeper.
func OpenRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	rl := newRotatingLogger(dir, retentionWeeks, maxFileSize)
	rl.mu.Lock()
	err := rl.rotate(weekKey(rl.now()), false)
	rl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rl.sweeping = true
	go rl.sweep(24 * time.Hour)
	return rl, nil
}

func newRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// weekKey formats t as an ISO week, e.g. 2025-W41.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate switches to the right file for week; newPart forces the next
// numbered part. Caller holds mu.
func (rl *RotatingLogger) rotate(week string, newPart bool) error {
	if rl.file != nil {
		_ = rl.file.Close()
		rl.file = nil
	}

	name := rl.pickFile(week, newPart)
	path := filepath.Join(rl.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	rl.file = file
	rl.week = week
	rl.size = 0
	if info, err := file.Stat(); err == nil {
		rl.size = info.Size()
	}
	return nil
}

// pickFile returns the newest file of week that still has room, or the
// name of the next numbered part.
func (rl *RotatingLogger) pickFile(week string, newPart bool) string {
	base := logFilePrefix + week + logFileSuffix
	highest, lastName, lastSize := rl.highestPart(week)

	if !newPart {
		if highest == 0 {
			info, err := os.Stat(filepath.Join(rl.dir, base))
			if err != nil || rl.hasRoom(info.Size()) {
				return base
			}
		} else if rl.hasRoom(lastSize) {
			return lastName
		}
	}
	return fmt.Sprintf("%s%s_%02d%s", logFilePrefix, week, highest+1, logFileSuffix)
}

func (rl *RotatingLogger) hasRoom(size int64) bool {
	return rl.maxFileSize <= 0 || size < rl.maxFileSize
}

func (rl *RotatingLogger) highestPart(week string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.dir, logFilePrefix+week+"_??"+logFileSuffix))

	var highest int
	var name string
	var size int64
	for _, m := range matches {
		sub := numberedLogFile.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n <= highest {
			continue
		}
		highest, name, size = n, filepath.Base(m), 0
		if info, err := os.Stat(m); err == nil {
			size = info.Size()
		}
	}
	return highest, name, size
}

// Write appends p to the current file, rotating first on a week change or
// when p would overflow the size limit.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return 0, os.ErrClosed
	}

	week := weekKey(rl.now())
	full := rl.maxFileSize > 0 && rl.size > 0 && rl.size+int64(len(p)) > rl.maxFileSize
	if week != rl.week || full || rl.file == nil {
		if err := rl.rotate(week, full && week == rl.week); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// cleanup removes log files last modified before the retention cutoff.
func (rl *RotatingLogger) cleanup() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("reading log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	var removed int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rl.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

func (rl *RotatingLogger) sweep(every time.Duration) {
	defer close(rl.stopped)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			// stderr, not slog: this writer may be behind the default logger
			if n, err := rl.cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stderr, "removed %d expired log files\n", n)
			}
		}
	}
}

// Close stops the sweeper and closes the current file.
func (rl *RotatingLogger) Close() error {
	var err error
	rl.closeOnce.Do(func() {
		close(rl.stop)
		if rl.sweeping {
			<-rl.stopped
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		rl.closed = true
		if rl.file != nil {
			err = rl.file.Close()
			rl.file = nil
		}
	})
	return err
}
