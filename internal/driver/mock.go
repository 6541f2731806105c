package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver is an in-memory GraphDriver for tests. It records every
// query and transaction and replays scripted results in order.
type MockDriver struct {
	Queries      []Statement
	Transactions [][]Statement
	Results      []neo4j.EagerResult
	QueryErr     error
	TxErr        error
	Closed       bool
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, Statement{Cypher: query, Params: params})
	if m.QueryErr != nil {
		return neo4j.EagerResult{}, m.QueryErr
	}
	if len(m.Results) == 0 {
		return neo4j.EagerResult{}, nil
	}
	res := m.Results[0]
	m.Results = m.Results[1:]
	return res, nil
}

func (m *MockDriver) ExecuteInTx(ctx context.Context, stmts []Statement) error {
	m.Transactions = append(m.Transactions, stmts)
	return m.TxErr
}

func (m *MockDriver) Close(ctx context.Context) error {
	m.Closed = true
	return nil
}
