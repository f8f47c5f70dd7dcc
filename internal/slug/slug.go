// Package slug validates the identifiers used to name books.
package slug

import (
	"regexp"
	"strings"

	"github.com/tinoosan/bookledger/internal/ledger"
)

var reBook = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,39}$`)

// IsBookID returns true if s is a usable book id: 1-40 chars of [A-Za-z0-9_-],
// starting with a letter or digit, and not the ALL-BOOKS sentinel.
func IsBookID(s string) bool {
	if strings.EqualFold(s, ledger.AllBooks) {
		return false
	}
	return reBook.MatchString(s)
}

// Normalize trims spaces around a book id taken from user input.
func Normalize(s string) string { return strings.TrimSpace(s) }
