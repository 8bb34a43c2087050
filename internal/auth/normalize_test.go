package auth_test

import (
	"testing"

	"github.com/scveran/voxauth/internal/auth"
)

func TestNormalizePassphrase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Open Sesame", "open sesame"},
		{"  open   sesame  ", "open sesame"},
		{"open\tsesame\n", "open sesame"},
		{"OPEN SESAME", "open sesame"},
		{"", ""},
		{"   \t\n  ", ""},
	}
	for _, tt := range tests {
		if got := auth.NormalizePassphrase(tt.in); got != tt.want {
			t.Errorf("NormalizePassphrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
