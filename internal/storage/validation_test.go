package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{name: "valid context", ctx: context.Background()},
		{name: "nil context", ctx: nil, wantErr: true},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNilContext)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "   ", wantErr: true},
		{name: "string with spaces", str: "  test  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "param")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "plain", table: "hsm_price_deck"},
		{name: "prefixed", table: "test_hsm_price_deck_wide"},
		{name: "leading underscore", table: "_staging"},
		{name: "empty", table: "", wantErr: true},
		{name: "leading digit", table: "2024_deck", wantErr: true},
		{name: "schema qualified", table: "main.deck", wantErr: true},
		{name: "injection", table: "deck; DROP TABLE ingest_runs", wantErr: true},
		{name: "space", table: "price deck", wantErr: true},
		{name: "quote", table: `deck"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIdentifier(tt.table)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTables(t *testing.T) {
	assert.NoError(t, validateTables(testTables))
	assert.ErrorIs(t, validateTables(config.TableSet{Wide: "deck", Long: "deck"}), ErrInvalidTable)
	assert.ErrorIs(t, validateTables(config.TableSet{Wide: "ok", Long: "not ok"}), ErrInvalidTable)
}

func TestValidateRetractColumn(t *testing.T) {
	for _, col := range []string{model.ColFileDesc, model.ColFileDate, model.ColForecastVersion} {
		assert.NoError(t, validateRetractColumn(col), col)
	}
	for _, col := range []string{model.ColBenchmark, "1=1 OR file_desc", ""} {
		assert.ErrorIs(t, validateRetractColumn(col), ErrInvalidColumn, col)
	}
}

func TestValidateWide(t *testing.T) {
	good := func() *model.WideTable {
		w, _ := deckFixture("2024/jan.xlsx", "2024-01-15", "2024-01-31", "2024-02-29")
		return w
	}

	tests := []struct {
		mutate  func(*model.WideTable) *model.WideTable
		name    string
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(w *model.WideTable) *model.WideTable { return w },
		},
		{
			name:    "nil",
			mutate:  func(*model.WideTable) *model.WideTable { return nil },
			wantErr: ErrNilParameter,
		},
		{
			name: "missing file_desc",
			mutate: func(w *model.WideTable) *model.WideTable {
				w.Provenance.FileDesc = " "
				return w
			},
			wantErr: ErrInvalidWide,
		},
		{
			name: "value column shadows a leading column",
			mutate: func(w *model.WideTable) *model.WideTable {
				w.PeriodColumns[1] = model.ColBenchmark
				return w
			},
			wantErr: ErrInvalidWide,
		},
		{
			name: "duplicate period",
			mutate: func(w *model.WideTable) *model.WideTable {
				w.PeriodColumns[1] = w.PeriodColumns[0]
				return w
			},
			wantErr: ErrInvalidWide,
		},
		{
			name: "ragged row",
			mutate: func(w *model.WideTable) *model.WideTable {
				w.Rows[0].Values = w.Rows[0].Values[:1]
				return w
			},
			wantErr: ErrInvalidWide,
		},
		{
			name: "row without units",
			mutate: func(w *model.WideTable) *model.WideTable {
				w.Rows[1].CurrencyUnits = ""
				return w
			},
			wantErr: ErrInvalidWide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWide(tt.mutate(good()))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLong(t *testing.T) {
	_, long := deckFixture("2024/jan.xlsx", "2024-01-15", "2024-01-31")
	require.NoError(t, validateLong("2024/jan.xlsx", long))
	assert.NoError(t, validateLong("2024/jan.xlsx", nil))

	foreign := append([]model.LongRow(nil), long...)
	foreign[1].FileDesc = "2024/feb.xlsx"
	assert.ErrorIs(t, validateLong("2024/jan.xlsx", foreign), ErrInvalidLongRow)

	undated := []model.LongRow{{
		Provenance: model.Provenance{FileDesc: "2024/jan.xlsx"},
		Value:      sql.NullFloat64{Float64: 1, Valid: true},
		Period:     time.Time{},
	}}
	assert.ErrorIs(t, validateLong("2024/jan.xlsx", undated), ErrInvalidLongRow)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"2024-01-31"`, quoteIdent("2024-01-31"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
