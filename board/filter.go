package board

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Matches reports whether name contains filter, ignoring case.  The empty
// filter matches everything.
func Matches(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(folder.String(name), folder.String(filter))
}
