package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Connect opens the configured backend. Neo4j is the default and the
// only backend the search queries work against.
func Connect(ctx context.Context, provider string, opts Options, logger *log.Logger) (GraphDriver, error) {
	switch strings.ToLower(provider) {
	case "", "neo4j":
		return NewNeo4jDriver(ctx, opts, logger)
	case "memgraph":
		return NewMemgraphDriver(ctx, opts, logger)
	default:
		return nil, fmt.Errorf("unsupported graph provider: %s", provider)
	}
}
