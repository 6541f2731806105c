// Package query is the fixed library of read templates over the medical
// graph. Every template is read-only and returns typed views; failures
// surface as QueryError naming the template that ran.
package query

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/helix/internal/driver"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/metrics"
)

// QueryError wraps a failed template with its name.
type QueryError struct {
	Template string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Template, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Library holds the templates' shared dependencies. Embedder is only
// needed by SimilarNodes and may be nil otherwise.
type Library struct {
	Driver   driver.GraphDriver
	Embedder llm.Embedder
	Log      *log.Logger
}

func NewLibrary(d driver.GraphDriver, embedder llm.Embedder, logger *log.Logger) *Library {
	return &Library{Driver: d, Embedder: embedder, Log: logger}
}

func (l *Library) run(ctx context.Context, template, cypher string, params map[string]any) (neo4j.EagerResult, error) {
	res, err := l.Driver.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(template, "error").Inc()
		return neo4j.EagerResult{}, &QueryError{Template: template, Err: err}
	}
	metrics.QueriesTotal.WithLabelValues(template, "ok").Inc()
	return res, nil
}

const countNodesQuery = `
	MATCH (n)
	UNWIND labels(n) AS label
	RETURN label, count(*) AS count
	ORDER BY label
`

// CountNodes tallies nodes per label.
func (l *Library) CountNodes(ctx context.Context) (map[string]int, error) {
	res, err := l.run(ctx, "count_nodes", countNodesQuery, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(res.Records))
	for _, rec := range res.Records {
		label, _ := rec.Get("label")
		count, _ := rec.Get("count")
		counts[asString(label)] = asInt(count)
	}
	return counts, nil
}
