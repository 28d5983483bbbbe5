package embedding

import "context"

// Embedder 把文本批量转换为向量表示
type Embedder interface {
	BatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
