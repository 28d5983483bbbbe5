package model

import (
	"sort"
	"strings"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// Document 可写入Elasticsearch的文档
type Document interface {
	GetID() string
	GetIndex() string
	GetTypeMapping() *types.TypeMapping
	GetEmbeddingString() string
	SetEmbedding(embedding []float32)
	GetEmbedding() []float32
}

// RecordDoc 把一条抓取记录包装成ES文档
// ID沿用结果集的去重键,同一条记录重复写入是幂等的
type RecordDoc struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Fields    entity.Record `json:"fields"`
	Text      string        `json:"text"`
	Embedding []float32     `json:"embedding,omitempty"`

	index string
}

// NewRecordDoc index 按提取器名派生,source 记录数据来自哪个提取器
func NewRecordDoc(index, source, id string, rec entity.Record) *RecordDoc {
	return &RecordDoc{
		ID:     id,
		Source: source,
		Fields: rec,
		Text:   flattenText(rec),
		index:  index,
	}
}

func (d *RecordDoc) GetID() string    { return d.ID }
func (d *RecordDoc) GetIndex() string { return d.index }

func (d *RecordDoc) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"id":        types.NewKeywordProperty(),
			"source":    types.NewKeywordProperty(),
			"text":      types.NewTextProperty(),
			"embedding": types.NewDenseVectorProperty(),
		},
	}
}

// GetEmbeddingString 送去做词嵌入的文本,就是拼接后的记录正文
func (d *RecordDoc) GetEmbeddingString() string { return d.Text }

func (d *RecordDoc) SetEmbedding(embedding []float32) { d.Embedding = embedding }

func (d *RecordDoc) GetEmbedding() []float32 { return d.Embedding }

// flattenText 把记录的字符串字段按字段名顺序拼成一段检索文本
func flattenText(rec entity.Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
