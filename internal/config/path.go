// Package config holds deckflow's settings and the spreadsheet flavor
// definitions.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ and $VAR references in path-valued
// settings such as database.path, root and flavors_file. A home directory
// that cannot be determined leaves ~ untouched.
func ExpandPath(p string) string {
	if p == "" {
		return ""
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	return os.ExpandEnv(p)
}
