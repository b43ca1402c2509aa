// Scan command: extract record fields from an image with Gemini.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/internal/extract"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

// fieldExtractor is what scan needs from the extraction service.
type fieldExtractor interface {
	Extract(ctx context.Context, c types.Category, in extract.Input) (map[string]any, error)
}

// newExtractor is a package-level var to allow test injection.
var newExtractor = func(ctx context.Context, apiKey, model string, logger *slog.Logger) (fieldExtractor, error) {
	return extract.New(ctx, apiKey, model, logger)
}

func newScanCmd(a *app) *cobra.Command {
	var notes string
	var save bool

	cmd := &cobra.Command{
		Use:   "scan <category> [image]",
		Short: "Extract record fields from a scanned image",
		Long: `Scan sends an image (and, for incidents, optional field notes) to Gemini
and prints the extracted fields as JSON. With --save the result is stored as a
new record. Incidents may be scanned from --text alone.

The API key comes from gemini.api_key in config.yaml, COFFER_GEMINI_API_KEY,
or GOOGLE_API_KEY.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}

			in := extract.Input{Text: notes}
			if len(args) == 2 {
				img, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				in.Image = img
				in.MIMEType = http.DetectContentType(img)
			}

			ex, err := newExtractor(cmd.Context(), a.settings.GeminiAPIKey, a.settings.GeminiModel, a.logger)
			if err != nil {
				return err
			}
			fields, err := ex.Extract(cmd.Context(), c, in)
			if err != nil {
				return sysErr("scan: %w", err)
			}

			if !save {
				return printJSON(cmd.OutOrStdout(), fields)
			}

			now := time.Now()
			r := types.NewRecord("", now.UnixMilli())
			for k, v := range fields {
				r.Set(k, v)
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				saved, err := saveRecord(cmd, st, c, r, now)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}

	cmd.Flags().StringVar(&notes, "text", "", "field notes sent with the image")
	cmd.Flags().BoolVar(&save, "save", false, "store the extracted record")
	return cmd
}
