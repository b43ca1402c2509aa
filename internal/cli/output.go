// Shared output helpers for coffer commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// summaryFields picks the payload field shown in table output per category.
var summaryFields = map[types.Category][]string{
	types.CategoryCorrespondence: {"objet", "type_objet"},
	types.CategoryCheck:          {"banque", "numero_cheque"},
	types.CategoryIncident:       {"victime_objet", "nature_incident"},
}

// printRecords writes one line per record: id, age, and a short summary.
func printRecords(w io.Writer, c types.Category, records []types.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "no %s\n", c)
		return
	}
	for _, r := range records {
		var summary []string
		for _, f := range summaryFields[c] {
			if s := r.String(f); s != "" {
				summary = append(summary, s)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, humanize.Time(time.UnixMilli(r.CreatedAt)), strings.Join(summary, " · "))
	}
}

// printStats writes a category summary in text form.
func printStats(w io.Writer, s types.Stats) {
	fmt.Fprintf(w, "%s: %s records\n", s.Category, humanize.Comma(int64(s.Total)))
	switch s.Category {
	case types.CategoryIncident:
		fmt.Fprintf(w, "closed: %s\n", humanize.Comma(int64(s.Closed)))
	case types.CategoryCheck:
		fmt.Fprintf(w, "total amount: %s\n", humanize.CommafWithDigits(s.TotalAmount, 2))
	}
	for _, k := range slices.Sorted(maps.Keys(s.Breakdown)) {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Breakdown[k])
	}
}

// readInput reads a payload from path, or from stdin when path is "-" or
// empty.
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
