package auth

import "testing"

func TestSanitizeRedirectPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", "/"},
		{"local path", "/mylist", "/mylist"},
		{"local path with query", "/novel/3?tab=reviews", "/novel/3?tab=reviews"},
		{"relative path", "mylist", "/"},
		{"protocol relative", "//evil.com", "/"},
		{"absolute url", "https://evil.com/", "/"},
		{"backslash trick", "/\\evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeRedirectPath(tt.path); got != tt.want {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
