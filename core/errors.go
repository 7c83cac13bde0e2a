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


package core

import "errors"

// Error taxonomy for a load run. Each category has a fixed recovery policy:
// input and normalization errors are local, setup errors are fatal, write
// errors are counted, and verification mismatches are reported.
var (
	// ErrMalformedLine indicates an input line could not be decoded as a record.
	ErrMalformedLine = errors.New("malformed input line")

	// ErrMalformedEntry indicates a nested entry was dropped during normalization.
	ErrMalformedEntry = errors.New("malformed nested entry")

	// ErrStoreSetup indicates the store could not be connected or the collection
	// could not be (re)created. No records are written after this error.
	ErrStoreSetup = errors.New("store setup failed")

	// ErrStoreWrite indicates a batch flush failed after exhausting its retries.
	ErrStoreWrite = errors.New("store write failed")

	// ErrVerificationMismatch indicates the store count differs from the submitted count.
	ErrVerificationMismatch = errors.New("verification mismatch")

	// ErrInvalidCandidateRecord indicates a CandidateRecord does not conform to the target schema.
	ErrInvalidCandidateRecord = errors.New("invalid candidate record")
)
