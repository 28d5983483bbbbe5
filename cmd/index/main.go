package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/LouYuanbo1/cdpspider/internal/config"
	"github.com/LouYuanbo1/cdpspider/internal/domain/model"
	"github.com/LouYuanbo1/cdpspider/internal/infra/cdp"
	"github.com/LouYuanbo1/cdpspider/internal/infra/embedding"
	"github.com/LouYuanbo1/cdpspider/internal/infra/exporter"
	"github.com/LouYuanbo1/cdpspider/internal/infra/persistence/es"
	"github.com/LouYuanbo1/cdpspider/internal/service/export"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider"
	"github.com/LouYuanbo1/cdpspider/preset"
)

//go:embed appconfig/appconfig.json
var appConfig []byte

// 抓取并把记录嵌入后索引到Elasticsearch
// 运行前确保 es 和 ollama 服务都已启动
func main() {
	if len(os.Args) < 2 {
		fmt.Println("使用方法: index <preset> [options]")
		return
	}

	appcfg, err := config.ParseConfig(appConfig)
	if err != nil {
		log.Fatalf("解析配置失败: %v", err)
	}

	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}
	extractor, err := preset.ByName(os.Args[1], arg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()

	browser, err := cdp.CheckBrowser(ctx, appcfg)
	if err != nil {
		log.Fatalf("无法连接到 Chrome: %v", err)
	}
	log.Printf("已连接 (%s)", browser)

	//初始化Elasticsearch客户端与嵌入模型
	esClient, err := es.InitTypedEsClient[*model.RecordDoc](appcfg)
	if err != nil {
		log.Fatalf("初始化Elasticsearch客户端失败: %v", err)
	}
	embedder, err := embedding.InitEmbedder(ctx, appcfg)
	if err != nil {
		log.Fatalf("初始化Embedder失败: %v", err)
	}

	spiderService := spider.InitSpiderService(appcfg)
	records, err := spiderService.Crawl(ctx, extractor)
	if err != nil {
		var extractionErr *spider.ExtractionError
		if errors.As(err, &extractionErr) && len(records) > 0 {
			log.Printf("抓取中断,继续导出部分结果: %v", err)
		} else {
			log.Fatalf("抓取失败: %v", err)
		}
	}
	if len(records) == 0 {
		log.Fatalf("没有抓到数据")
	}

	fileExporter, err := exporter.InitFileExporter(appcfg.Spider.OutputDir)
	if err != nil {
		log.Fatalf("初始化导出目录失败: %v", err)
	}
	exportService := export.InitExportService(fileExporter, esClient, embedder)
	if err := exportService.SaveAll(os.Args[1], records); err != nil {
		log.Printf("保存文件失败: %v", err)
	}
	if err := exportService.IndexRecords(ctx, extractor.Name, extractor.IDField, records); err != nil {
		log.Fatalf("索引到Elasticsearch失败: %v", err)
	}

	fmt.Printf("完成! 共抓取并索引 %d 条数据\n", len(records))
}
