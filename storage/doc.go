// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage defines the store contract used to load candidate records.
//
// A store manages named collections (SchemaManager), accepts single and
// batched inserts (Writer), aggregates counts (Counter), reads records back
// (Reader) and optionally answers semantic queries (Searcher). The Store
// interface combines all of them. Two implementations exist:
//
//   - storage/weaviate talks to a remote Weaviate instance.
//   - storage/badger keeps everything in an embedded BadgerDB, on disk or in
//     memory. It is used for local runs and in tests.
//
// Collections are described by a store-neutral CollectionDefinition.
// CandidateCollection returns the fixed definition for candidate records:
//
//	def := storage.CandidateCollection("", storage.VectorizerPolicy{
//	    Module: storage.DefaultVectorizerModule,
//	    Fields: storage.DefaultVectorizedFields,
//	})
//
// # Errors
//
// Implementations classify failures with the sentinels in errors.go.
// ErrRejected marks requests that will never succeed as sent, and callers
// must not retry them. ErrUnavailable marks transient failures.
//
// # Thread Safety
//
// All store implementations must be safe for concurrent use.
package storage
