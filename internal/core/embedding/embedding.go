// Package embedding backfills vector embeddings onto graph nodes after
// import, so similarity search has something to query.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/record"
)

// embedLabels fixes the processing order across runs.
var embedLabels = []string{
	record.LabelPatient,
	record.LabelVisit,
	record.LabelProvider,
	record.LabelAllergy,
}

// NodeText renders a node's properties into the text its embedding is
// computed from. Absent properties are skipped; an unembeddable label
// renders empty.
func NodeText(label string, props map[string]any) string {
	var parts []string
	head := func(prefix, key string) {
		v := "Unknown"
		if s := renderValue(props[key]); s != "" {
			v = s
		}
		parts = append(parts, prefix+": "+v)
	}
	add := func(prefix, key string) {
		if s := renderValue(props[key]); s != "" {
			parts = append(parts, prefix+": "+s)
		}
	}

	switch label {
	case record.LabelPatient:
		head("Patient", "name")
		add("Age", "age")
		add("Gender", "gender")
		add("Marital Status", "marital_status")
	case record.LabelVisit:
		head("Medical Visit", "visit_type")
		add("Start", "start_time")
		add("End", "end_time")
		add("Location", "location")
		add("Notes", "notes")
	case record.LabelProvider:
		head("Provider", "name")
		add("Specialty", "specialty")
	case record.LabelAllergy:
		head("Allergy", "allergen")
		add("Severity", "severity")
		add("Reaction", "reaction_type")
		add("Notes", "notes")
	default:
		return ""
	}
	return strings.Join(parts, " | ")
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Backfiller finds nodes without an embedding and fills them in.
type Backfiller struct {
	Driver    driver.GraphDriver
	Embedder  llm.Embedder
	Model     string
	BatchSize int
	Log       *log.Logger
}

func NewBackfiller(d driver.GraphDriver, embedder llm.Embedder, model string, logger *log.Logger) *Backfiller {
	return &Backfiller{Driver: d, Embedder: embedder, Model: model, BatchSize: 50, Log: logger}
}

// Run embeds every embeddable node that has no embedding yet and returns
// how many it wrote. A node whose embedding call fails is logged and
// skipped; the run keeps going.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	total := 0
	for _, label := range embedLabels {
		n, err := b.backfillLabel(ctx, label)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (b *Backfiller) backfillLabel(ctx context.Context, label string) (int, error) {
	res, err := b.Driver.ExecuteQuery(ctx, fmt.Sprintf(driver.MissingEmbeddingQueryTmpl, label), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s nodes: %w", label, err)
	}

	setQuery := fmt.Sprintf(driver.SetEmbeddingQueryTmpl, label)
	var batch []driver.Statement
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.Driver.ExecuteInTx(ctx, batch); err != nil {
			return fmt.Errorf("failed to store %s embeddings: %w", label, err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, rec := range res.Records {
		uidVal, _ := rec.Get("uid")
		propsVal, _ := rec.Get("props")
		uid, _ := uidVal.(string)
		props, _ := propsVal.(map[string]any)
		if uid == "" || props == nil {
			continue
		}

		text := NodeText(label, props)
		if text == "" {
			continue
		}

		vec, err := b.Embedder.Embed(ctx, text)
		if err != nil {
			b.Log.Warn("embedding failed, node skipped", "label", label, "uid", uid, "err", err)
			continue
		}

		embedding := make([]float64, len(vec))
		for i, v := range vec {
			embedding[i] = float64(v)
		}
		batch = append(batch, driver.Statement{
			Cypher: setQuery,
			Params: map[string]any{
				"uid":       uid,
				"embedding": embedding,
				"model":     b.Model,
				"text":      text,
			},
		})

		if len(batch) >= b.BatchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	if written > 0 {
		b.Log.Info("embeddings written", "label", label, "count", written)
	}
	return written, nil
}
