package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatingFile is the logger's file sink: it appends to one active file and
// rotates it, by date or by size, into timestamped backups, pruning the
// oldest once more than MaxBackups accumulate.
type rotatingFile struct {
	dir         string
	name        string
	maxSize     int64
	maxBackups  int
	file        *os.File
	currentSize int64
	openDate    string
	mu          sync.Mutex
}

func newRotatingFile(cfg Config) (*rotatingFile, error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, err
	}
	rf := &rotatingFile{dir: cfg.LogDir, name: cfg.FileName, maxSize: cfg.MaxFileSize, maxBackups: cfg.MaxBackups}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) path() string {
	return filepath.Join(rf.dir, rf.name)
}

func (rf *rotatingFile) open() error {
	if info, err := os.Stat(rf.path()); err == nil {
		rf.currentSize = info.Size()
		if rf.maxSize > 0 && rf.currentSize >= rf.maxSize {
			if err := rf.rotate(); err != nil {
				return err
			}
			return nil
		}
	} else {
		rf.currentSize = 0
	}

	f, err := os.OpenFile(rf.path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	rf.file = f
	rf.openDate = time.Now().Format("2006-01-02")
	return nil
}

func (rf *rotatingFile) Write(data []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.shouldRotate() {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(data)
	if err == nil {
		rf.currentSize += int64(n)
	}
	return n, err
}

func (rf *rotatingFile) shouldRotate() bool {
	if time.Now().Format("2006-01-02") != rf.openDate {
		return true
	}
	return rf.maxSize > 0 && rf.currentSize >= rf.maxSize
}

func (rf *rotatingFile) rotate() error {
	if rf.file != nil {
		rf.file.Close()
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	backup := filepath.Join(rf.dir, fmt.Sprintf("%s.%s.log", rf.name, timestamp))
	if err := os.Rename(rf.path(), backup); err != nil && !os.IsNotExist(err) {
		return err
	}

	go rf.pruneBackups()

	f, err := os.OpenFile(rf.path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	rf.file = f
	rf.currentSize = 0
	rf.openDate = time.Now().Format("2006-01-02")
	return nil
}

func (rf *rotatingFile) pruneBackups() {
	if rf.maxBackups <= 0 {
		return
	}

	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return
	}

	var backups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), rf.name+".") && strings.HasSuffix(e.Name(), ".log") {
			backups = append(backups, filepath.Join(rf.dir, e.Name()))
		}
	}

	sort.Strings(backups) // lexical order tracks timestamp order with this naming scheme

	if len(backups) > rf.maxBackups {
		for _, b := range backups[:len(backups)-rf.maxBackups] {
			os.Remove(b)
		}
	}
}

func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file != nil {
		return rf.file.Close()
	}
	return nil
}
