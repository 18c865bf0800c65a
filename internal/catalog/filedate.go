package catalog

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/model"
)

var digitRunRe = regexp.MustCompile(`\d+`)

// dateTokens returns every run of exactly eight digits in s once hyphens are
// removed, so both 20240115 and 2024-01-15 yield a token.
func dateTokens(s string) []string {
	var tokens []string
	for _, run := range digitRunRe.FindAllString(strings.ReplaceAll(s, "-", ""), -1) {
		if len(run) == 8 {
			tokens = append(tokens, run)
		}
	}
	return tokens
}

// ExtractFileDate returns the file's nominal date as YYYY-MM-DD. The base
// name is searched first; directories are only consulted when the base name
// has no token. More than one token at the level where one is found is
// ambiguous.
func ExtractFileDate(relPath string) (string, error) {
	slashed := strings.ReplaceAll(relPath, `\`, "/")

	tokens := dateTokens(path.Base(slashed))
	if len(tokens) == 0 {
		tokens = dateTokens(slashed)
	}

	switch len(tokens) {
	case 0:
		return "", fmt.Errorf("%w: %s", common.ErrNoDateToken, relPath)
	case 1:
	default:
		return "", fmt.Errorf("%w: %s has %s", common.ErrAmbiguousDateToken, relPath, strings.Join(tokens, ", "))
	}

	d, err := time.Parse("20060102", tokens[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s: token %s is not a calendar date", common.ErrNoDateToken, relPath, tokens[0])
	}
	return d.Format(model.DateLayout), nil
}
