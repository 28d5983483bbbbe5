package export

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/LouYuanbo1/cdpspider/internal/domain/model"
	"github.com/LouYuanbo1/cdpspider/internal/infra/embedding"
	"github.com/LouYuanbo1/cdpspider/internal/infra/exporter"
	"github.com/LouYuanbo1/cdpspider/internal/infra/persistence/es"
	"golang.org/x/sync/errgroup"
)

type ExportService interface {
	// SaveAll 把记录同时写成 JSON/CSV/Markdown 三份文件
	SaveAll(name string, records []entity.Record) error
	// IndexRecords 生成嵌入向量并批量写入Elasticsearch
	// 文档ID取idField字段值,未配置或缺失时退回结构化哈希
	IndexRecords(ctx context.Context, name, idField string, records []entity.Record) error
}

type exportService struct {
	files    *exporter.FileExporter
	esClient es.TypedEsClient[*model.RecordDoc]
	embedder embedding.Embedder
}

// InitExportService esClient/embedder 传nil表示只做文件导出
func InitExportService(files *exporter.FileExporter, esClient es.TypedEsClient[*model.RecordDoc], embedder embedding.Embedder) ExportService {
	return &exportService{files: files, esClient: esClient, embedder: embedder}
}

func (s *exportService) SaveAll(name string, records []entity.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("没有数据可保存")
	}
	crawledAt := time.Now()

	// 三种格式互不依赖,并行写出
	var g errgroup.Group
	g.Go(func() error {
		file, err := s.files.SaveJSON(name, records, crawledAt)
		if err == nil {
			log.Printf("已保存 JSON: %s", file)
		}
		return err
	})
	g.Go(func() error {
		file, err := s.files.SaveCSV(name, records, crawledAt)
		if err == nil {
			log.Printf("已保存 CSV: %s", file)
		}
		return err
	})
	g.Go(func() error {
		file, err := s.files.SaveMarkdown(name, records, crawledAt)
		if err == nil {
			log.Printf("已保存 Markdown: %s", file)
		}
		return err
	})
	return g.Wait()
}

func (s *exportService) IndexRecords(ctx context.Context, name, idField string, records []entity.Record) error {
	if s.esClient == nil || s.embedder == nil {
		return fmt.Errorf("未配置Elasticsearch或嵌入模型")
	}
	if len(records) == 0 {
		return nil
	}

	index := indexName(name)
	docs := make([]*model.RecordDoc, 0, len(records))
	for _, rec := range records {
		docs = append(docs, model.NewRecordDoc(index, name, docID(idField, rec), rec))
	}

	if err := s.esClient.CreateIndexWithMapping(ctx, docs[0]); err != nil {
		return err
	}
	s.embedDocs(ctx, docs)
	return s.esClient.BulkIndexDocsWithID(ctx, docs)
}

// embedDocs 分批生成嵌入,单批失败只记日志,不挡住落库
func (s *exportService) embedDocs(ctx context.Context, docs []*model.RecordDoc) {
	batchSize := s.embedder.BatchSize()
	if batchSize <= 0 {
		batchSize = len(docs)
	}
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		texts := make([]string, 0, end-i)
		for _, doc := range docs[i:end] {
			texts = append(texts, doc.GetEmbeddingString())
		}
		reqCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		vectors, err := s.embedder.Embed(reqCtx, texts)
		cancel()
		if err != nil {
			log.Printf("Embed error: %v", err)
			continue
		}
		for j := range vectors {
			docs[i+j].SetEmbedding(vectors[j])
		}
	}
}

func docID(idField string, rec entity.Record) string {
	if idField != "" {
		if v, ok := rec[idField]; ok && v != nil {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	return entity.StructuralKey(rec)
}

var indexNamePattern = regexp.MustCompile(`[^a-z0-9_-]+`)

// indexName 提取器名转成合法的ES索引名
func indexName(name string) string {
	cleaned := indexNamePattern.ReplaceAllString(strings.ToLower(name), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		cleaned = "records"
	}
	return "spider_" + cleaned
}
