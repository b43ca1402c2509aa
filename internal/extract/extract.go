// Package extract turns a scanned image (and optional notes) into a record
// payload using the Gemini API. The store never calls it; the CLI feeds its
// output to the Store Facade.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: missing API key")

// ErrEmptyInput is returned when neither an image nor notes are supplied.
var ErrEmptyInput = errors.New("extract: image or text required")

// Input is the material to analyze. Correspondence and checks need an image;
// incidents accept an image, notes, or both.
type Input struct {
	Image    []byte
	MIMEType string
	Text     string
}

// contentGenerator is the slice of the genai Models service Extractor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extractor requests structured fields for a category from Gemini.
type Extractor struct {
	models contentGenerator
	model  string
	logger *slog.Logger
}

// New creates an Extractor backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Extractor, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newExtractor(client.Models, model, logger), nil
}

func newExtractor(models contentGenerator, model string, logger *slog.Logger) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		models: models,
		model:  model,
		logger: logger.With(slog.String("component", "extract")),
	}
}

// Model returns the model name requests are sent to.
func (e *Extractor) Model() string {
	return e.model
}

// Extract asks the model for the fields of category c found in in. The
// result holds only payload fields; id and created_at are left to the
// caller.
func (e *Extractor) Extract(ctx context.Context, c types.Category, in Input) (map[string]any, error) {
	p, ok := prompts[c]
	if !ok {
		return nil, types.NewError(types.ErrUnknownCategory, "extract", c, nil)
	}
	if len(in.Image) == 0 && strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyInput
	}
	if len(in.Image) == 0 && c != types.CategoryIncident {
		return nil, fmt.Errorf("extract %s: image required", c)
	}

	parts := []*genai.Part{{Text: p.instruction}}
	if len(in.Image) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: in.Image, MIMEType: in.MIMEType}})
	}
	if notes := strings.TrimSpace(in.Text); notes != "" {
		parts = append(parts, &genai.Part{Text: p.notesLabel + notes})
	}

	res, err := e.models.GenerateContent(ctx, e.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   p.schema,
		})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	fields, err := decodeFields(res.Text())
	if err != nil {
		return nil, err
	}
	e.logger.Debug("fields extracted", slog.String("category", c.String()), slog.Int("fields", len(fields)))
	return fields, nil
}

// decodeFields parses the model's JSON answer. An empty answer yields no
// fields. Reserved keys are dropped so they cannot shadow the record's own.
func decodeFields(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode model answer: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	delete(fields, types.FieldID)
	delete(fields, types.FieldCreatedAt)
	return fields, nil
}
