package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"

	"github.com/agenthands/helix/internal/core/common"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/record"
)

// ExtractionError wraps any failure while turning one text into a
// record. The batch driver logs it and moves on to the next text.
type ExtractionError struct {
	SourceID string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %q: %v", e.SourceID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

const tokenEncoding = "cl100k_base"

type Extractor struct {
	LLM       llm.Client
	MaxTokens int
	Prompt    string

	schemaJSON string
}

// NewExtractor builds an extractor around llmClient. The JSON schema the
// prompt carries is reflected once from the record types. An empty
// promptTmpl selects the built-in template; a custom one must keep two
// %s verbs, schema then text.
func NewExtractor(llmClient llm.Client, maxTokens int, promptTmpl string) (*Extractor, error) {
	if promptTmpl == "" {
		promptTmpl = defaultPrompt
	}
	schema, err := json.MarshalIndent(common.GenerateSchema(record.MedicalData{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction schema: %w", err)
	}
	return &Extractor{
		LLM:        llmClient,
		MaxTokens:  maxTokens,
		Prompt:     promptTmpl,
		schemaJSON: string(schema),
	}, nil
}

// Extract turns one clinical text into a validated record with
// provenance attached. An empty sourceID gets a generated id.
func (e *Extractor) Extract(ctx context.Context, sourceID, text string) (*record.Record, error) {
	if sourceID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, &ExtractionError{SourceID: sourceID, Err: err}
		}
		sourceID = id
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{SourceID: sourceID, Err: fmt.Errorf("empty text")}
	}

	originalLength := len(text)
	text, err := e.truncate(text)
	if err != nil {
		return nil, &ExtractionError{SourceID: sourceID, Err: err}
	}

	prompt := fmt.Sprintf(e.Prompt, e.schemaJSON, text)
	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, &ExtractionError{SourceID: sourceID, Err: fmt.Errorf("llm call failed: %w", err)}
	}

	data, err := common.ParseJSON[record.MedicalData](response)
	if err != nil {
		return nil, &ExtractionError{SourceID: sourceID, Err: err}
	}

	rec := &record.Record{
		Metadata: record.Metadata{
			SourceID:          sourceID,
			ExtractedAt:       time.Now().UTC(),
			TextLength:        originalLength,
			ExtractionVersion: record.ExtractionVersion,
		},
		MedicalData: data,
	}
	if err := record.Validate(rec); err != nil {
		return nil, &ExtractionError{SourceID: sourceID, Err: err}
	}
	return rec, nil
}

// truncate cuts the text to the token budget at a token boundary.
func (e *Extractor) truncate(text string) (string, error) {
	if e.MaxTokens <= 0 {
		return text, nil
	}
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= e.MaxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:e.MaxTokens]), nil
}
