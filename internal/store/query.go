package store

import (
	"context"
	"fmt"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/queryir"
	"github.com/roach88/combatlens/internal/querysql"
)

// QueryEvents returns the stored events of q.SessionID matching q.Filter,
// in sequence order. Position carries the stored sequence index.
func (s *Store) QueryEvents(ctx context.Context, q queryir.EventQuery) ([]ir.Event, error) {
	sql, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}
