// Package normalize turns heterogeneous candidate objects into records that
// conform to the target collection schema.
//
// Every field of the target shape is listed in a single declarative table
// that binds it to a coercion rule: text, text list, boolean, year, date,
// nested entries, or nested object. The rules never fail. A value that
// cannot be coerced resolves to the field's default ("" for text, false for
// booleans, an empty list for sequences) or, for dates and years, to absent.
//
// Dates are emitted only as canonical midnight-UTC timestamps and only
// within [MinYear, reference year + FutureYears]:
//
//	n, _ := normalize.New(normalize.WithReferenceYear(2024))
//	rec := n.Normalize(raw)
//
// Normalizing an already normalized record is a no-op.
package normalize
