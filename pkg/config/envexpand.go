package config

import "os"

// ExpandEnv expands ${VAR}/$VAR references in YAML content using Go's
// standard library, shell-style. Missing variables expand to empty string;
// validation catches required fields that end up empty.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
