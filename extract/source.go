package extract

import (
	"context"
	"iter"
)

// Source yields warehouse rows. An error ends the sequence.
type Source interface {
	Rows(ctx context.Context) iter.Seq2[Row, error]
}

// SliceSource serves rows from memory.
type SliceSource []Row

// Rows yields each row in order.
func (s SliceSource) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, row := range s {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
