package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"

	"github.com/poiesic/talentload/core"
)

// PreviewLength is how many characters of a malformed line are kept for reporting.
const PreviewLength = 200

// Line is one decoded input record with its 1-based line number.
type Line struct {
	Number int
	Raw    map[string]any
}

// LineError reports an input line that could not be decoded as a record.
type LineError struct {
	Number  int
	Preview string
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (content: %q)", e.Number, e.Err, e.Preview)
}

// Unwrap exposes both the malformed-line category and the decode cause.
func (e *LineError) Unwrap() []error {
	return []error{core.ErrMalformedLine, e.Err}
}

// ReadLines streams newline-delimited JSON objects from r. Blank lines are
// skipped. Lines that do not decode to a JSON object are yielded with a
// *LineError; reading continues unless the consumer stops. An I/O failure is
// yielded as a plain error and ends the sequence.
//
// Numbers are decoded as json.Number so numeric text keeps its spelling.
func ReadLines(r io.Reader) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		br := bufio.NewReader(r)
		number := 0
		for {
			data, err := br.ReadBytes('\n')
			if len(data) > 0 {
				number++
				if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 {
					raw, derr := decodeLine(trimmed)
					var line Line
					var lerr error
					if derr != nil {
						line = Line{Number: number}
						lerr = &LineError{Number: number, Preview: preview(trimmed), Err: derr}
					} else {
						line = Line{Number: number, Raw: raw}
					}
					if !yield(line, lerr) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Line{}, fmt.Errorf("reading input after line %d: %w", number, err))
				}
				return
			}
		}
	}
}

// Scan reads all of r and returns the number of records and the first
// malformed line, if any. It is used to validate a file before any
// destructive setup runs.
func Scan(r io.Reader) (int, error) {
	count := 0
	for _, err := range ReadLines(r) {
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func decodeLine(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(v))
	}
	return m, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func preview(data []byte) string {
	if utf8.RuneCount(data) <= PreviewLength {
		return string(data)
	}
	runes := []rune(string(data))
	return string(runes[:PreviewLength]) + "..."
}
