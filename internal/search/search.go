// Package search filters record listings by free text. Matching ignores case
// and diacritics, so "classe" finds "Classé".
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Fields lists the payload fields searched for each category, in addition to
// the record id.
var Fields = map[types.Category][]string{
	types.CategoryCorrespondence: {"objet", "emetteur", "destinataire", "reference", "resume", "type_objet"},
	types.CategoryCheck:          {"banque", "numero_cheque", "numero_compte", "nom_proprietaire", "nom_beneficiaire", "motif_rejet", "ville"},
	types.CategoryIncident:       {"victime_objet", "description_sinistre", "nature_incident"},
}

// Fold lowercases s and strips combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Match reports whether r matches the folded query.
func Match(c types.Category, r types.Record, foldedQuery string) bool {
	if strings.Contains(Fold(r.ID), foldedQuery) {
		return true
	}
	for _, f := range Fields[c] {
		if strings.Contains(Fold(r.String(f)), foldedQuery) {
			return true
		}
	}
	return false
}

// Filter returns the records of category c matching query, preserving order.
// An empty or blank query returns records unchanged.
func Filter(c types.Category, records []types.Record, query string) []types.Record {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := []types.Record{}
	for _, r := range records {
		if Match(c, r, q) {
			out = append(out, r)
		}
	}
	return out
}
