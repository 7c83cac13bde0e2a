// Package verify reconciles the number of records a load submitted with the
// number the store reports holding.
//
// The store's aggregate count is preferred. Stores that cannot aggregate are
// counted by paging record identifiers up to a fixed cap. A mismatch is
// reported in the Result and never repaired.
package verify
