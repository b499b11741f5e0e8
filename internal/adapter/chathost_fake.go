package adapter

import (
	"context"
	"sync"
)

// FakeChatHost is an in-memory ChatHost used by tests and by hosts that
// have not wired a real chat plugin; spec.md §1 explicitly keeps the real
// host chat plugin surface out of scope.
type FakeChatHost struct {
	mu        sync.Mutex
	Messages  []FakeMessage
	Titles    map[string]string
	Toasts    []FakeToast
	Subagents map[string]bool
}

type FakeMessage struct {
	SessionID string
	Message   string
}

type FakeToast struct {
	SessionID string
	Kind      string
	Message   string
}

func NewFakeChatHost() *FakeChatHost {
	return &FakeChatHost{
		Titles:    make(map[string]string),
		Subagents: make(map[string]bool),
	}
}

func (f *FakeChatHost) SendMessage(ctx context.Context, sessionID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, FakeMessage{SessionID: sessionID, Message: message})
	return nil
}

func (f *FakeChatHost) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Titles[sessionID] = title
	return nil
}

func (f *FakeChatHost) ShowToast(ctx context.Context, sessionID, kind, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Toasts = append(f.Toasts, FakeToast{SessionID: sessionID, Kind: kind, Message: message})
	return nil
}

func (f *FakeChatHost) SessionTitle(ctx context.Context, sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.Titles[sessionID]; ok {
		return t, nil
	}
	return sessionID, nil
}

func (f *FakeChatHost) IsSubagentSession(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Subagents[sessionID]
}
