package driver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/helix/internal/record"
)

// MemgraphDriver speaks bolt to a Memgraph instance. Imports and plain
// lookups work unchanged; full-text, vector, and point search need the
// Neo4j backend, since Memgraph ships none of the db.index procedures.
type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	log    *log.Logger
}

func NewMemgraphDriver(ctx context.Context, opts Options, logger *log.Logger) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph store unreachable at %s: %w", opts.URI, err)
	}

	logger.Info("connected to memgraph", "uri", opts.URI)
	return &MemgraphDriver{Driver: driver, log: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) ExecuteInTx(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range stmts {
			result, err := tx.Run(ctx, stmt.Cypher, stmt.Params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// MemgraphSchemaStatements is the reduced DDL Memgraph accepts: label
// and property indexes only. The constraints, full-text, vector, and
// point indexes of the Neo4j schema have no equivalent here.
func MemgraphSchemaStatements() []string {
	labels := []string{
		record.LabelPatient, record.LabelVisit, record.LabelProvider,
		record.LabelAllergy, record.LabelAddress, record.LabelExtraction,
	}

	stmts := make([]string, 0, len(labels)+6)
	for _, label := range labels {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX ON :%s(uid);", label))
	}
	stmts = append(stmts,
		"CREATE INDEX ON :Patient(name);",
		"CREATE INDEX ON :Patient(patient_id);",
		"CREATE INDEX ON :MedicalVisit(start_time);",
		"CREATE INDEX ON :MedicalProvider(provider_id);",
		"CREATE INDEX ON :Allergy(allergen);",
		"CREATE INDEX ON :ExtractionRecord(source_id);",
	)
	return stmts
}

// EnsureMemgraphSchema applies the index set. Memgraph rejects an index
// that already exists, so rejected statements are logged and skipped
// rather than failing the run.
func EnsureMemgraphSchema(ctx context.Context, g GraphDriver, logger *log.Logger) error {
	for _, stmt := range MemgraphSchemaStatements() {
		if _, err := g.ExecuteQuery(ctx, stmt, nil); err != nil {
			logger.Warn("index statement rejected, assuming it exists", "statement", stmt, "err", err)
		}
	}
	return nil
}
