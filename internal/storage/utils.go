package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RowsStream[T any] struct {
	Row T
	Err error
}

// GetRowsStream fetches rows over an unbuffered channel so the consumer
// controls the pace. The channel is closed when rows are exhausted, on the
// first error, or when ctx is done.
func GetRowsStream[T any](
	ctx context.Context,
	pool *pgxpool.Pool,
	scanRow func(rows pgx.Rows) (T, error),
	sql string,
	args ...any,
) <-chan RowsStream[T] {
	ch := make(chan RowsStream[T])

	go func() {
		defer close(ch)

		send := func(item RowsStream[T]) bool {
			select {
			case ch <- item:
				return true
			case <-ctx.Done():
				return false
			}
		}

		rows, err := pool.Query(ctx, sql, args...)
		if err != nil {
			send(RowsStream[T]{Err: fmt.Errorf("pool.Query: %w", err)})
			return
		}
		defer rows.Close()

		for rows.Next() {
			item, er := scanRow(rows)
			if er != nil {
				send(RowsStream[T]{Err: fmt.Errorf("scanRow: %w", er)})
				return
			}
			if !send(RowsStream[T]{Row: item}) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			send(RowsStream[T]{Err: fmt.Errorf("rows: %w", err)})
		}
	}()

	return ch
}
