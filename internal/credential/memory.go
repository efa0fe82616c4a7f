package credential

import "sync"

// Memory keeps the token in process memory. It is used by tests and by
// one-shot commands that must not touch the system keyring.
type Memory struct {
	mu    sync.Mutex
	token string
}

// Load returns the stored token.
func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save stores the token.
func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear forgets the token.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
