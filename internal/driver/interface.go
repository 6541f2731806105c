package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Statement is one parameterized Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error)
	// ExecuteInTx runs all statements inside a single managed write
	// transaction. Either every statement commits or none do.
	ExecuteInTx(ctx context.Context, stmts []Statement) error
	Close(ctx context.Context) error
}
