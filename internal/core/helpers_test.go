package core

import (
	"context"
	"sync"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, title)
}

func (n *recordingNotifier) Error(_, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, description)
}

func (n *recordingNotifier) successTitles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

type memorySessionStore struct {
	mu      sync.Mutex
	entries repository.SessionEntries
	saves   int
}

func (m *memorySessionStore) LoadSession(context.Context) (repository.SessionEntries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

func (m *memorySessionStore) SaveSession(_ context.Context, entries repository.SessionEntries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.saves++
	return nil
}
