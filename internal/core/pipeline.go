package core

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/metrics"
	"github.com/agenthands/helix/internal/record"
)

// Source is one unit of raw input text.
type Source struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

// Outcome reports what happened to a single source or record.
type Outcome struct {
	SourceID string
	Patient  string
	Result   *ImportResult
	Err      error
}

// Summary aggregates outcomes across a batch. Failed sources carry
// their error in Outcomes; the graph holds nothing from them.
type Summary struct {
	Processed int
	Imported  int
	Failed    int
	Outcomes  []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Processed++
	if o.Err != nil {
		s.Failed++
	} else {
		s.Imported++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Pipeline runs text through extraction and into the store. Extractor
// may be nil when only pre-built records are imported.
type Pipeline struct {
	Driver    driver.GraphDriver
	Extractor *extraction.Extractor
	Importer  *Importer
	Strict    bool
	Log       *log.Logger
}

func NewPipeline(d driver.GraphDriver, ex *extraction.Extractor, im *Importer, strict bool, logger *log.Logger) *Pipeline {
	return &Pipeline{Driver: d, Extractor: ex, Importer: im, Strict: strict, Log: logger}
}

// ProcessText extracts a record from text and imports it.
func (p *Pipeline) ProcessText(ctx context.Context, sourceID, text string) (*record.Record, *ImportResult, error) {
	rec, err := p.Extractor.Extract(ctx, sourceID, text)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, nil, err
	}
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

	res, err := p.importRecord(ctx, rec)
	if err != nil {
		return rec, nil, err
	}
	return rec, res, nil
}

// RunBatch processes each source independently. A failed source never
// blocks the ones after it unless Strict is set, in which case the
// batch stops at the first failure and the partial summary is returned
// together with the error.
func (p *Pipeline) RunBatch(ctx context.Context, sources []Source) (*Summary, error) {
	summary := &Summary{}
	for _, src := range sources {
		rec, res, err := p.ProcessText(ctx, src.SourceID, src.Text)
		o := Outcome{SourceID: src.SourceID, Result: res, Err: err}
		if rec != nil {
			o.SourceID = rec.Metadata.SourceID
			o.Patient = rec.Patient.Name
		}
		summary.add(o)

		if err != nil {
			p.Log.Error("source failed", "source_id", o.SourceID, "err", err)
			if p.Strict {
				return summary, err
			}
			continue
		}
		p.Log.Info("source imported",
			"source_id", o.SourceID, "patient", o.Patient, "nodes", res.Nodes, "edges", res.Edges)
	}
	return summary, nil
}

// ImportRecords writes already-extracted records, skipping the LLM
// stage entirely.
func (p *Pipeline) ImportRecords(ctx context.Context, recs []*record.Record) (*Summary, error) {
	summary := &Summary{}
	for _, rec := range recs {
		res, err := p.importRecord(ctx, rec)
		o := Outcome{SourceID: rec.Metadata.SourceID, Patient: rec.Patient.Name, Result: res, Err: err}
		summary.add(o)

		if err != nil {
			p.Log.Error("record failed", "source_id", o.SourceID, "err", err)
			if p.Strict {
				return summary, err
			}
			continue
		}
		p.Log.Info("record imported",
			"source_id", o.SourceID, "patient", o.Patient, "nodes", res.Nodes, "edges", res.Edges)
	}
	return summary, nil
}

func (p *Pipeline) importRecord(ctx context.Context, rec *record.Record) (*ImportResult, error) {
	start := time.Now()
	res, err := p.Importer.Import(ctx, rec)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	metrics.ImportDuration.Observe(time.Since(start).Seconds())
	for label, n := range res.Labels {
		metrics.NodesWritten.WithLabelValues(label).Add(float64(n))
	}
	return res, nil
}
