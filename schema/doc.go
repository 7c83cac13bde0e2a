// Package schema resets the target collection before a load.
//
// ResetAndCreateSchema is deliberately destructive and non-transactional:
// it deletes the collection (and every record in it) and creates it again
// from a fixed definition. Reruns over the same input therefore start from
// an empty collection instead of accumulating duplicates.
package schema
