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


package storage

import "errors"

var (
	// ErrCollectionNotFound indicates that the named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists indicates that a collection with that name already exists.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrRejected indicates the store refused a request as invalid. Retrying
	// the same request will not succeed.
	ErrRejected = errors.New("rejected by store")

	// ErrUnavailable indicates a transient store failure such as a timeout,
	// rate limit or server error.
	ErrUnavailable = errors.New("store unavailable")

	// ErrCountUnsupported indicates the store cannot aggregate a count.
	ErrCountUnsupported = errors.New("count aggregation not supported")

	// ErrSearchUnsupported indicates the store has no vectorizer configured.
	ErrSearchUnsupported = errors.New("semantic search not supported")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
