package talentload

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// WriteSummary prints the run report as an aligned two-column table.
func (r *Report) WriteSummary(w io.Writer) error {
	rows := [][2]string{
		{"Run", r.RunID},
		{"Collection", r.Collection},
		{"Outcome", r.Outcome.String()},
	}
	if r.Schema != nil {
		rows = append(rows, [2]string{"Existing collection dropped", strconv.FormatBool(r.Schema.Dropped)})
	}
	if s := r.Load; s != nil {
		rows = append(rows,
			[2]string{"Lines read", strconv.Itoa(s.Lines)},
			[2]string{"Lines skipped", strconv.Itoa(len(s.Skipped))},
			[2]string{"Records normalized", strconv.Itoa(s.Normalized)},
			[2]string{"Nested entries dropped", strconv.Itoa(s.DroppedEntries)},
			[2]string{"Records submitted", strconv.Itoa(s.Submitted)},
			[2]string{"Records failed", strconv.Itoa(s.Failed)},
			[2]string{"Batches", strconv.Itoa(s.Batches)},
			[2]string{"Failed batches", strconv.Itoa(len(s.FailedBatches))},
		)
		if s.Interrupted {
			rows = append(rows, [2]string{"Interrupted", "yes"})
		}
	}
	if v := r.Verify; v != nil {
		count := strconv.Itoa(v.Actual)
		if v.Capped {
			count = "≥ " + count
		}
		rows = append(rows,
			[2]string{"Store count", fmt.Sprintf("%s (%s)", count, v.Method)},
			[2]string{"Missing", strconv.Itoa(v.Missing)},
			[2]string{"Extra", strconv.Itoa(v.Extra)},
		)
		if v.Sampled > 0 {
			rows = append(rows, [2]string{"Spot check", fmt.Sprintf("%d sampled, %d non-conforming", v.Sampled, len(v.NonConforming))})
		}
	}
	rows = append(rows, [2]string{"Duration", r.Duration.Round(time.Millisecond).String()})
	if r.Err != nil {
		rows = append(rows, [2]string{"Error", r.Err.Error()})
	}

	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row[0]))
	}
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(row[0])
		sb.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(row[0])+2))
		sb.WriteString(row[1])
		sb.WriteByte('\n')
	}
	if r.Load != nil {
		for _, fb := range r.Load.FailedBatches {
			fmt.Fprintf(&sb, "  failed batch lines %d-%d (%d records, %d attempts): %v\n",
				fb.FirstLine, fb.LastLine, fb.Size, fb.Attempts, fb.Err)
		}
		for _, le := range r.Load.Skipped {
			fmt.Fprintf(&sb, "  skipped line %d: %v\n", le.Number, le.Err)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
