package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"photark/internal/logging"
	"photark/internal/store"
)

// memStore is an in-memory Store for walker tests. It mimics the SQLite
// semantics the scanner relies on: unique directory paths, append-only
// file rows.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	dirs    map[string]int64 // path -> id
	parents map[int64]*int64 // dir id -> parent id
	files   []store.FileRow

	failDirs bool // force directory inserts to fail
}

func newMemStore() *memStore {
	return &memStore{
		dirs:    make(map[string]int64),
		parents: make(map[int64]*int64),
	}
}

func (m *memStore) FindDirectoryByPath(_ context.Context, path string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.dirs[path]
	return id, ok, nil
}

func (m *memStore) InsertDirectory(_ context.Context, path string, parentID *int64, _ *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDirs {
		return 0, fmt.Errorf("forced directory failure for %s", path)
	}
	if _, exists := m.dirs[path]; exists {
		return 0, fmt.Errorf("unique constraint violated for %s", path)
	}
	m.nextID++
	m.dirs[path] = m.nextID
	m.parents[m.nextID] = parentID
	return m.nextID, nil
}

func (m *memStore) InsertFile(_ context.Context, row store.FileRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.files = append(m.files, row)
	return m.nextID, nil
}

func (m *memStore) fileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *memStore) filePaths() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make(map[string]int)
	for _, f := range m.files {
		paths[f.Filepath]++
	}
	return paths
}

func (m *memStore) dirCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirs)
}

// logEvent is one captured diagnostic.
type logEvent struct {
	level logging.Level
	msg   string
	path  string
}

// memLogger records every event so tests can assert on what was reported.
type memLogger struct {
	mu     sync.Mutex
	events []logEvent
}

func (l *memLogger) Log(level logging.Level, msg string, filePath string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, logEvent{level: level, msg: msg, path: filePath})
}

// countContaining returns how many captured messages contain substr.
func (l *memLogger) countContaining(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if strings.Contains(e.msg, substr) {
			n++
		}
	}
	return n
}

// messagesContaining returns the captured messages that contain substr.
func (l *memLogger) messagesContaining(substr string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if strings.Contains(e.msg, substr) {
			out = append(out, e.msg)
		}
	}
	return out
}

// stubExtractor returns a fixed metadata map for every file.
type stubExtractor struct {
	meta map[string]string
}

func (e *stubExtractor) Extract(context.Context, string) map[string]string {
	out := make(map[string]string, len(e.meta))
	for k, v := range e.meta {
		out[k] = v
	}
	return out
}
