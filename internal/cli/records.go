// Record commands: save, get, list, delete.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/internal/search"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <category> [file|-]",
		Short: "Create or replace a record from a JSON object",
		Long: `Save reads one JSON object from a file or stdin and stores it.

A record with an id replaces any existing record with that id. Without an id,
incidents receive the next SRM-MS/DPH/AI reference for the current month and
other categories receive a generated id. created_at defaults to now.

Categories: documents (courriers), checks (cheques), avis (incidents)`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			now := time.Now()
			r, err := recordFromPayload(data, now)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(st types.Store) error {
				saved, err := saveRecord(cmd, st, c, r, now)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), saved)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", saved.ID)
				return nil
			})
		},
	}
}

// saveRecord stores r, assigning an id when it has none.
func saveRecord(cmd *cobra.Command, st types.Store, c types.Category, r types.Record, now time.Time) (types.Record, error) {
	if r.ID == "" && c == types.CategoryIncident {
		if _, ok := r.Fields[types.FieldIncidentStatus]; !ok {
			r.Set(types.FieldIncidentStatus, types.IncidentStatusFollowUp)
		}
		return st.CreateIncident(cmd.Context(), r, now)
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if err := st.Save(cmd.Context(), c, r); err != nil {
		return types.Record{}, err
	}
	return r, nil
}

// newID returns a time-ordered UUID, falling back to a random one.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// recordFromPayload decodes a JSON object into a record. id, when present,
// must be a string; created_at defaults to now.
func recordFromPayload(data []byte, now time.Time) (types.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return types.Record{}, fmt.Errorf("parse JSON: %w", err)
	}
	if obj == nil {
		return types.Record{}, errors.New("parse JSON: payload must be an object")
	}
	if v, ok := obj[types.FieldID]; ok {
		if _, isString := v.(string); !isString {
			return types.Record{}, fmt.Errorf("parse JSON: %s must be a string", types.FieldID)
		}
	}

	r := types.NewRecord("", 0)
	for k, v := range obj {
		r.Set(k, v)
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = now.UnixMilli()
	}
	return r, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <category> <id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				r, err := st.Get(cmd.Context(), c, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var query, prefix string

	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "List records, newest first",
		Long: `List prints every record of a category, newest first.

--search keeps records whose id or main text fields contain the query,
ignoring case and accents. --prefix keeps records whose id starts with the
given prefix, for example an incident month: SRM-MS/DPH/AI-0125.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				var records []types.Record
				var err error
				if prefix != "" {
					records, err = st.FindByPrefix(cmd.Context(), c, prefix)
					if err != nil {
						return err
					}
					records = search.Filter(c, records, query)
				} else {
					records, err = st.Search(cmd.Context(), c, query)
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), records)
				}
				printRecords(cmd.OutOrStdout(), c, records)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&query, "search", "", "case- and accent-insensitive text filter")
	cmd.Flags().StringVar(&prefix, "prefix", "", "id prefix filter")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <id>",
		Short: "Remove a record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				if err := st.Delete(cmd.Context(), c, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[1])
				return nil
			})
		},
	}
}
