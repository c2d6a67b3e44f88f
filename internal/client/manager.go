// Package client manages HTTP client creation and configuration.
package client

import (
	"net/http"
	"sync"
	"time"

	"evalgo.org/contentupgrade/internal/helpers"
)

// Manager handles HTTP client creation and caching for outbound calls such as
// service registry registration.
type Manager struct {
	timeout time.Duration
	debug   bool
	cache   map[string]*http.Client
	mu      sync.RWMutex
}

// NewManager creates a new client manager
func NewManager(timeout time.Duration, debug bool) *Manager {
	return &Manager{
		timeout: timeout,
		debug:   debug,
		cache:   make(map[string]*http.Client),
	}
}

// GetClient returns the HTTP client for the given server. Clients are cached per
// normalized URL and wrapped with request logging in debug mode.
func (m *Manager) GetClient(serverURL string) *http.Client {
	key := helpers.NormalizeURL(serverURL)

	m.mu.RLock()
	if cached, exists := m.cache[key]; exists {
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, exists := m.cache[key]; exists {
		return cached
	}

	client := &http.Client{Timeout: m.timeout}
	if m.debug {
		client = helpers.EnableHTTPDebugLogging(client)
	}
	m.cache[key] = client

	return client
}

// ClearCache clears the cached clients
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]*http.Client)
	m.mu.Unlock()
}
