// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without an embedding service and gives
// deterministic vectors: the same text always embeds to the same unit
// vector.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("rate limited")
//	}
//	count := embedder.CallCount()
package mock
