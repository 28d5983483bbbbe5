package spider

import (
	"context"
	"log"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/config"
	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/LouYuanbo1/cdpspider/internal/infra/cdp"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
	"github.com/chromedp/cdproto"
)

type SpiderService interface {
	Crawl(ctx context.Context, p *param.Extractor) ([]entity.Record, error)
}

type spiderService struct {
	cfg *config.Config
}

func InitSpiderService(cfg *config.Config) SpiderService {
	return &spiderService{cfg: cfg}
}

// Crawl 定位目标页面、附加会话并驱动滚动-提取-收敛循环
// 每次运行独占一条连接和一个结果集,结束后整体移交,运行之间不共享状态
func (ss *spiderService) Crawl(ctx context.Context, p *param.Extractor) ([]entity.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// 调用方的配置保持不动,默认值落在副本上
	task := *p
	p = &task
	ss.applyDefaults(p)

	log.Printf("查找页面: %s", p.URLPattern)
	sess, target, err := cdp.Attach(ctx, ss.cfg, p.URLPattern)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	log.Printf("找到页面: %s (%s)", target.Title, target.URL)

	// 订阅分离事件,用户中途关掉标签页时尽快带着部分结果退出
	if _, err := sess.Call(ctx, cdproto.CommandInspectorEnable, nil); err != nil {
		log.Printf("Inspector.enable 失败,继续运行: %v", err)
	}
	detached, unsubscribe := sess.Subscribe(cdproto.EventInspectorDetached)
	defer unsubscribe()

	if p.ScrollEnabled {
		log.Printf("开始抓取: %s, 滚动模式, 最多 %d 轮", p.Name, p.ScrollTimes)
	} else {
		log.Printf("开始抓取: %s, 单次模式", p.Name)
	}

	exec := cdp.NewExecutor(sess)
	en := newEngine(p, exec,
		ss.cfg.Spider.EmptyRoundThreshold,
		time.Duration(ss.cfg.Spider.RetryBackoffMillis)*time.Millisecond,
		detached)
	return en.run(ctx)
}

// applyDefaults 提取器未指定的节奏参数落到全局配置的默认值
func (ss *spiderService) applyDefaults(p *param.Extractor) {
	if p.ScrollEnabled && p.ScrollTimes == 0 {
		p.ScrollTimes = ss.cfg.Spider.ScrollTimes
	}
	if p.ScrollDelaySeconds == 0 {
		p.ScrollDelaySeconds = ss.cfg.Spider.ScrollDelaySeconds
	}
	if p.ExpandDelaySeconds == 0 {
		p.ExpandDelaySeconds = ss.cfg.Spider.ExpandDelaySeconds
	}
}
