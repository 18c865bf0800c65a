package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("DECK_ROOT", "/srv/decks")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "decks"), ExpandPath("~/decks"))
	assert.Equal(t, "/srv/decks/2024", ExpandPath("$DECK_ROOT/2024"))
}

func TestExpandPath_Settings(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("XDG_DATA_HOME", "/data")

	tests := map[string]string{
		"~/.local/share/deckflow/deckflow.db": filepath.Join(home, ".local", "share", "deckflow", "deckflow.db"),
		"${XDG_DATA_HOME}/deckflow.db":        "/data/deckflow.db",
		"~other/decks":                        "~other/decks",
		"relative/flavors.yaml":               "relative/flavors.yaml",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExpandPath(in), in)
	}
}
