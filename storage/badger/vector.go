package badger

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/talentload/core"
	"github.com/poiesic/talentload/storage"
)

// normalizeVector scales a vector to unit length so a dot product is a
// cosine similarity. A zero vector stays zero.
func normalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector length %d", storage.ErrSerializationFailed, len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}

// vectorText builds the text embedded for a record: every top-level text
// field covered by the policy, in definition order.
func vectorText(def *storage.CollectionDefinition, record *core.CandidateRecord) (string, error) {
	props, err := storage.RecordProperties(record)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, p := range def.Properties {
		if !def.Vectorizer.Vectorizes(p.Name) {
			continue
		}
		switch v := props[p.Name].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					items = append(items, s)
				}
			}
			if len(items) > 0 {
				parts = append(parts, strings.Join(items, ", "))
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
