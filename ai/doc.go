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


// Package ai provides the embedding abstraction used for local vectorization.
//
// Remote stores such as Weaviate vectorize records themselves. The embedded
// BadgerDB store has no vectorizer of its own, so it is given an Embedder
// and computes vectors for the configured text fields on insert. Semantic
// search embeds the query text the same way.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo-backed embedder for OpenAI and compatible servers
//   - ai/mock: deterministic embedder for tests
package ai
