package driver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Options configures the bolt connection.
type Options struct {
	URI      string
	Username string
	Password string
	Database string
}

type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	database string
	log      *log.Logger
}

func NewNeo4jDriver(ctx context.Context, opts Options, logger *log.Logger) (*Neo4jDriver, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph store unreachable at %s: %w", opts.URI, err)
	}

	logger.Info("connected to graph store", "uri", opts.URI)
	return &Neo4jDriver{Driver: driver, database: opts.Database, log: logger}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(d.database))
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// ExecuteInTx submits the statements through one write transaction, so a
// failing statement discards everything before it.
func (d *Neo4jDriver) ExecuteInTx(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
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
