package monitor

import "testing"

func TestNewStaticPermissionPolicy(t *testing.T) {
	cases := []struct {
		configured string
		want       PermissionDecision
	}{
		{"allow", PermissionAllow},
		{"deny", PermissionDeny},
		{"prompt", PermissionPrompt},
		{"", PermissionPrompt},
		{"garbage", PermissionPrompt},
	}
	for _, c := range cases {
		p := NewStaticPermissionPolicy(c.configured)
		if got := p.Evaluate("Bash"); got != c.want {
			t.Errorf("NewStaticPermissionPolicy(%q).Evaluate(...) = %v, want %v", c.configured, got, c.want)
		}
	}
}

func TestStaticPermissionPolicy_SameDecisionForEveryTool(t *testing.T) {
	p := NewStaticPermissionPolicy("allow")
	if p.Evaluate("Bash") != p.Evaluate("Edit") {
		t.Fatal("expected a static policy to return the same decision regardless of tool name")
	}
}
