package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Export writes every row from src to w as one JSON object per line and
// returns the number of rows written.
func Export(ctx context.Context, src Source, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	n := 0
	for row, err := range src.Rows(ctx) {
		if err != nil {
			return n, err
		}
		if err := enc.Encode(ConvertRow(row)); err != nil {
			return n, fmt.Errorf("failed to encode row %d: %w", n+1, err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("failed to flush output: %w", err)
	}
	return n, nil
}
