// Package talentload loads candidate profiles from a newline-delimited JSON
// export into a vector store.
//
// A run is an ordered sequence of explicit steps: open the store, optionally
// pre-scan the input in strict mode, reset the target collection, load the
// records in batches and reconcile the submitted count with the store. Each
// step lives in its own package; Runner wires them together and maps the
// result to an Outcome.
package talentload
