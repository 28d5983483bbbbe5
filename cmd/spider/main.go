package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/LouYuanbo1/cdpspider/internal/config"
	"github.com/LouYuanbo1/cdpspider/internal/infra/cdp"
	"github.com/LouYuanbo1/cdpspider/internal/infra/exporter"
	"github.com/LouYuanbo1/cdpspider/internal/service/export"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider"
	"github.com/LouYuanbo1/cdpspider/preset"
)

//使用go:embed嵌入appconfig.json文件
//Github上保存的是样例配置,以实际环境为准

//go:embed appconfig/appconfig.json
var appConfig []byte

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  spider <preset> [options]")
	fmt.Println("")
	fmt.Println("可用预设:")
	fmt.Println("  twitter <username>  - 抓取 Twitter 推文")
	fmt.Println("  zhihu               - 抓取知乎回答")
	fmt.Println("  douban              - 抓取豆瓣评论")
	fmt.Println("  github              - 抓取 GitHub Issues")
	fmt.Println("")
	fmt.Println("示例:")
	fmt.Println("  spider twitter elonmusk")
}

func main() {
	if len(os.Args) < 2 {
		usage()
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

	// 先探测调试端点,不可达时给出启动Chrome的完整命令
	browser, err := cdp.CheckBrowser(ctx, appcfg)
	if err != nil {
		fmt.Println("无法连接到 Chrome,请先以调试模式启动:")
		fmt.Printf("  google-chrome --remote-debugging-port=%d \\\n", appcfg.Chrome.Port)
		fmt.Println("      --remote-allow-origins='*' \\")
		fmt.Println("      --user-data-dir=/tmp/chrome_dev_profile")
		log.Fatalf("连接失败: %v", err)
	}
	log.Printf("已连接 (%s)", browser)

	spiderService := spider.InitSpiderService(appcfg)
	records, err := spiderService.Crawl(ctx, extractor)
	if err != nil {
		// 运行失败也要报告已收集多少条,部分结果照样导出
		var extractionErr *spider.ExtractionError
		if errors.As(err, &extractionErr) && len(records) > 0 {
			log.Printf("抓取中断: %v", err)
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
	exportService := export.InitExportService(fileExporter, nil, nil)
	if err := exportService.SaveAll(os.Args[1], records); err != nil {
		log.Fatalf("保存失败: %v", err)
	}

	fmt.Printf("完成! 共抓取 %d 条数据\n", len(records))
}
