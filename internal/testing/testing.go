// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"golang.org/x/oauth2"
)

// MockCredentials is a test double for [services.Credentials]
type MockCredentials struct {
	Valid    bool
	Revoked  bool
	Codes    []string
	LastURL  string
	TokenErr error
}

func (m *MockCredentials) HasValidToken(ctx context.Context) bool { return m.Valid }

func (m *MockCredentials) Token(ctx context.Context) (*oauth2.Token, error) {
	if m.TokenErr != nil {
		return nil, m.TokenErr
	}
	if !m.Valid {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: "mock-access", RefreshToken: "mock-refresh", TokenType: "Bearer"}, nil
}

func (m *MockCredentials) AuthorizationURL(state string) string {
	m.LastURL = "https://accounts.example.com/o/oauth2/auth?state=" + state
	return m.LastURL
}

func (m *MockCredentials) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.Codes = append(m.Codes, code)
	m.Valid = true
	return m.Token(ctx)
}

func (m *MockCredentials) Revoke() error {
	if !m.Valid {
		return shared.ErrTokenNotFound
	}
	m.Valid = false
	m.Revoked = true
	return nil
}

// MockEngine is a test double for [tasks.SyncEngine] returning a fixed summary
type MockEngine struct {
	mu       sync.Mutex
	Summary  *tasks.Summary
	Updates  []tasks.ProgressUpdate
	Settings []shared.SyncSettings
}

func (m *MockEngine) Run(ctx context.Context, settings shared.SyncSettings, progress chan<- tasks.ProgressUpdate) *tasks.Summary {
	m.mu.Lock()
	m.Settings = append(m.Settings, settings)
	m.mu.Unlock()

	for _, u := range m.Updates {
		if progress != nil {
			progress <- u
		}
	}
	if m.Summary == nil {
		return &tasks.Summary{ChannelID: settings.ChannelID, Stage: tasks.StageDone}
	}
	return m.Summary
}

// Calls returns the settings of every run so far.
func (m *MockEngine) Calls() []shared.SyncSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.SyncSettings(nil), m.Settings...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
