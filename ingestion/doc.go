// Package ingestion streams newline-delimited candidate records into a store.
//
// ReadLines decodes the input one line at a time and reports undecodable
// lines with their line number. Loader normalizes each record, buffers it,
// and writes full buffers with InsertBatch, retrying transient failures with
// exponential backoff. A batch that still fails is recorded in the
// LoadSummary and the run continues with the next batch.
//
// When the context is cancelled the loader stops reading but still flushes
// whatever it has buffered.
package ingestion
