package es

import (
	"context"

	"github.com/LouYuanbo1/cdpspider/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
)

// TypedEsClient 抓取记录的Elasticsearch持久化入口
// 文档结构体要实现model.Document
type TypedEsClient[D model.Document] interface {
	GetClient() *elasticsearch.TypedClient
	CreateIndexWithMapping(ctx context.Context, schema D) error
	DeleteIndex(ctx context.Context, index string) error
	IndexDocWithID(ctx context.Context, doc D) error
	BulkIndexDocsWithID(ctx context.Context, docs []D) error
	GetDoc(ctx context.Context, index, id string) (D, error)
	CountDocs(ctx context.Context, index string) (int64, error)
}
