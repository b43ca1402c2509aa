// Package stats summarizes the records of one category.
package stats

import (
	"strings"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// unknownKey groups records whose breakdown field is missing or blank.
const unknownKey = "Non renseigné"

// breakdownFields names the payload field each category is grouped by.
var breakdownFields = map[types.Category]string{
	types.CategoryCorrespondence: types.FieldDocumentType,
	types.CategoryCheck:          types.FieldCheckBank,
	types.CategoryIncident:       types.FieldIncidentNature,
}

// Summarize computes the totals for category c over records.
func Summarize(c types.Category, records []types.Record) types.Stats {
	s := types.Stats{
		Category:  c,
		Total:     len(records),
		Breakdown: make(map[string]int),
	}
	field := breakdownFields[c]
	for _, r := range records {
		key := strings.TrimSpace(r.String(field))
		if key == "" {
			key = unknownKey
		}
		s.Breakdown[key]++

		switch c {
		case types.CategoryIncident:
			if r.String(types.FieldIncidentStatus) == types.IncidentStatusClosed {
				s.Closed++
			}
		case types.CategoryCheck:
			if amount, ok := r.Float(types.FieldCheckAmount); ok {
				s.TotalAmount += amount
			}
		}
	}
	return s
}
