package types

import (
	"fmt"
	"strings"
)

// Category identifies one of the three fixed record collections. The value is
// the key the category uses in a backup snapshot.
type Category string

// The three record categories. The set is fixed and not user-extensible.
const (
	CategoryCorrespondence Category = "documents"
	CategoryCheck          Category = "checks"
	CategoryIncident       Category = "avis"
)

// Categories lists every category in snapshot order.
var Categories = []Category{
	CategoryCorrespondence,
	CategoryCheck,
	CategoryIncident,
}

// tableNames maps each category to its SQLite table. The table names predate
// the snapshot keys and are kept for on-disk compatibility.
var tableNames = map[Category]string{
	CategoryCorrespondence: "documents",
	CategoryCheck:          "rejected_checks",
	CategoryIncident:       "avis_incidents",
}

// categoryAliases accepts the names users type on the command line.
var categoryAliases = map[string]Category{
	"documents":      CategoryCorrespondence,
	"courriers":      CategoryCorrespondence,
	"correspondence": CategoryCorrespondence,
	"checks":         CategoryCheck,
	"cheques":        CategoryCheck,
	"chèques":        CategoryCheck,
	"avis":           CategoryIncident,
	"incidents":      CategoryIncident,
}

// Table returns the storage table name for the category.
func (c Category) Table() string {
	return tableNames[c]
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	_, ok := tableNames[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category name or alias, case-insensitively.
// Returns ErrUnknownCategory for anything else.
func ParseCategory(name string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w %q (valid: documents, checks, avis)", ErrUnknownCategory, name)
}
