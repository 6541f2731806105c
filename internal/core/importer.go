package core

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/record"
)

// MutationError reports a failed import transaction with the identity of
// the record it belonged to. The transaction is already discarded, so no
// partial subgraph remains.
type MutationError struct {
	SourceID string
	Patient  string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("import failed for record %q (patient %q): %v", e.SourceID, e.Patient, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ImportResult summarizes one committed record.
type ImportResult struct {
	PatientUID string
	Nodes      int
	Edges      int
	Labels     map[string]int
}

// Importer writes mapped records to the store, one transaction per
// record.
type Importer struct {
	Driver  driver.GraphDriver
	Mapper  *mapping.Mapper
	Timeout time.Duration
	Log     *log.Logger
}

func NewImporter(d driver.GraphDriver, mapper *mapping.Mapper, timeout time.Duration, logger *log.Logger) *Importer {
	return &Importer{Driver: d, Mapper: mapper, Timeout: timeout, Log: logger}
}

// Import maps rec and commits its whole mutation set atomically. On any
// store failure nothing of the record remains in the graph.
func (im *Importer) Import(ctx context.Context, rec *record.Record) (*ImportResult, error) {
	set, err := im.Mapper.Map(rec)
	if err != nil {
		return nil, err
	}

	stmts, err := buildStatements(set)
	if err != nil {
		return nil, &MutationError{SourceID: rec.Metadata.SourceID, Patient: rec.Patient.Name, Err: err}
	}

	if im.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.Timeout)
		defer cancel()
	}

	if err := im.Driver.ExecuteInTx(ctx, stmts); err != nil {
		return nil, &MutationError{SourceID: rec.Metadata.SourceID, Patient: rec.Patient.Name, Err: err}
	}

	im.Log.Debug("record committed",
		"source_id", rec.Metadata.SourceID, "nodes", len(set.Nodes), "edges", len(set.Edges))

	return &ImportResult{
		PatientUID: set.PatientUID(),
		Nodes:      len(set.Nodes),
		Edges:      len(set.Edges),
		Labels:     set.CountByLabel(),
	}, nil
}
