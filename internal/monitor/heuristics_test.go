package monitor

import "testing"

func TestClassifyPane(t *testing.T) {
	cases := []struct {
		name string
		tail string
		want paneState
	}{
		{"awaiting select", "pick one\n↑↓ select", paneAwaitingInput},
		{"awaiting submit", "type a value, enter submit", paneAwaitingInput},
		{"awaiting dismiss", "press esc dismiss", paneAwaitingInput},
		{"streaming dot", "working ⬝", paneStreaming},
		{"streaming interrupt", "esc interrupt", paneStreaming},
		{"idle", "ctrl+p commands", paneIdle},
		{"unknown", "some random scrollback", paneUnknown},
		{"awaiting takes priority over streaming", "⬝ thinking\nenter submit", paneAwaitingInput},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyPane(c.tail); got != c.want {
				t.Errorf("classifyPane(%q) = %s, want %s", c.tail, got, c.want)
			}
		})
	}
}

func TestHashTail_StableForSameInput(t *testing.T) {
	a := hashTail("same content")
	b := hashTail("same content")
	if a != b {
		t.Fatal("expected identical input to hash identically")
	}
}

func TestHashTail_DiffersForDifferentInput(t *testing.T) {
	a := hashTail("content one")
	b := hashTail("content two")
	if a == b {
		t.Fatal("expected different input to hash differently")
	}
}
