package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("HELIXASK_TEST_VAR", "hello")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no references", "plain text", "plain text"},
		{"braced reference", "value: ${HELIXASK_TEST_VAR}", "value: hello"},
		{"bare reference", "value: $HELIXASK_TEST_VAR", "value: hello"},
		{"missing variable expands empty", "value: ${HELIXASK_TEST_MISSING_VAR}", "value: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(ExpandEnv([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
