package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deckflow/internal/common"
)

func TestExtractFileDate(t *testing.T) {
	tests := []struct {
		wantErr error
		path    string
		want    string
	}{
		{path: "price_deck_20240115.xlsx", want: "2024-01-15"},
		{path: "2024/Q1/price_deck_20240115.xlsx", want: "2024-01-15"},
		{path: "HSM Deck 2024-03-31 final.xlsx", want: "2024-03-31"},
		{path: "20231231/deck.xlsx", want: "2023-12-31"},
		{path: "20231231/deck_20240102.xlsx", want: "2024-01-02"},
		{path: "deck_v202401151200.xlsx", wantErr: common.ErrNoDateToken},
		{path: "deck.xlsx", wantErr: common.ErrNoDateToken},
		{path: "deck_20241345.xlsx", wantErr: common.ErrNoDateToken},
		{path: "deck_20240101_20240201.xlsx", wantErr: common.ErrAmbiguousDateToken},
		{path: "20240101/x/20240201/deck.xlsx", wantErr: common.ErrAmbiguousDateToken},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ExtractFileDate(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileRef(t *testing.T) {
	ref := FileRef{Root: "/data/decks", RelPath: "2024/price_deck_20240115.xlsx"}
	assert.Equal(t, "/data/decks/2024/price_deck_20240115.xlsx", ref.Path())
	assert.Equal(t, "2024/price_deck_20240115.xlsx", ref.String())

	d, err := ref.FileDate()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", d)
}
