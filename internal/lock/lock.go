// Package lock keeps a hub or a client profile to one process at a time.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file created inside the guarded directory.
const FileName = "LOCK"

// Holder describes the process that owns a lock.
type Holder struct {
	PID   int
	Owner string
	Since time.Time
}

// HeldError is returned when another process holds the lock.
type HeldError struct {
	Holder
	Path string
}

func (e *HeldError) Error() string {
	owner := e.Owner
	if owner == "" {
		owner = "another process"
	}
	if e.Since.IsZero() {
		return fmt.Sprintf("%s already running (PID %d, %s)", owner, e.PID, e.Path)
	}
	return fmt.Sprintf("%s already running since %s (PID %d, %s)",
		owner, e.Since.Local().Format(time.DateTime), e.PID, e.Path)
}

// Lock is an acquired lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the lock of dir for owner, for example "lchatd" or
// "lchat:main". The directory is created when missing.
func Acquire(dir, owner string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, fmt.Errorf("flock %s: %w", path, err)
		}
		h, _ := Inspect(dir)
		return nil, &HeldError{Holder: h, Path: path}
	}

	h := Holder{PID: os.Getpid(), Owner: owner, Since: time.Now().UTC()}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(h.encode()), 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

// Inspect reads the holder recorded in dir without taking the lock. A missing
// file yields a zero Holder and an error matching fs.ErrNotExist.
func Inspect(dir string) (Holder, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Holder{}, err
	}
	return decode(string(data)), nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Safe to call on a nil or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func (h Holder) encode() string {
	return fmt.Sprintf("pid=%d\nowner=%s\nsince=%s\n", h.PID, h.Owner, h.Since.Format(time.RFC3339))
}

func decode(content string) Holder {
	var h Holder
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			h.PID, _ = strconv.Atoi(value)
		case "owner":
			h.Owner = value
		case "since":
			h.Since, _ = time.Parse(time.RFC3339, value)
		}
	}
	return h
}
