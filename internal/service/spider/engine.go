package spider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
	"github.com/mailru/easyjson"
)

// Evaluator 引擎对脚本执行层的唯一依赖,便于在测试里伪造页面
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) (any, error)
}

// ErrTargetDetached 抓取途中调试目标被关闭或分离
var ErrTargetDetached = errors.New("调试目标已分离")

// ExtractionError 一轮提取连续两次失败后终止运行
// 已收集的部分结果随错误一起交还调用方,绝不丢弃
type ExtractionError struct {
	Round     int
	Collected int
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("第 %d 轮提取失败(已收集 %d 条): %v", e.Round, e.Collected, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// engine 滚动-提取-收敛循环
// 状态流转: Idle → Extracting → (Scrolling|Expanding) → Extracting → … → Converged|Aborted
type engine struct {
	p              *param.Extractor
	eval           Evaluator
	results        *entity.ResultSet
	emptyThreshold int
	backoff        time.Duration
	detached       <-chan easyjson.RawMessage

	extractJS string
	scrollJS  string
}

func newEngine(p *param.Extractor, eval Evaluator, emptyThreshold int, backoff time.Duration, detached <-chan easyjson.RawMessage) *engine {
	return &engine{
		p:              p,
		eval:           eval,
		results:        entity.NewResultSet(),
		emptyThreshold: emptyThreshold,
		backoff:        backoff,
		detached:       detached,
		extractJS:      buildExtractJS(p),
		scrollJS:       buildScrollJS(p),
	}
}

// run 执行抓取直到收敛、达到滚动上限或中止
// 出错也返回已累积的部分结果,对调用方来说部分数据总好过没有
func (en *engine) run(ctx context.Context) ([]entity.Record, error) {
	maxRounds := 1
	if en.p.ScrollEnabled && en.p.ScrollTimes > 1 {
		maxRounds = en.p.ScrollTimes
	}

	emptyRounds := 0
	for round := 1; round <= maxRounds; round++ {
		if err := en.checkDetached(); err != nil {
			return en.finalize(), &ExtractionError{Round: round, Collected: en.results.Len(), Err: err}
		}

		en.expand(ctx)

		items, err := en.extract(ctx)
		if err != nil {
			recs := en.finalize()
			return recs, &ExtractionError{Round: round, Collected: len(recs), Err: err}
		}

		newCount := en.merge(items)
		log.Printf("第 %d 轮: +%d 条新数据, 总计: %d 条", round, newCount, en.results.Len())

		if newCount == 0 {
			emptyRounds++
			if emptyRounds >= en.emptyThreshold {
				log.Printf("连续 %d 轮没有新数据,收敛停止", emptyRounds)
				break
			}
		} else {
			emptyRounds = 0
		}

		if !en.p.ScrollEnabled || round == maxRounds {
			break
		}

		if err := en.scroll(ctx); err != nil {
			recs := en.finalize()
			return recs, &ExtractionError{Round: round, Collected: len(recs), Err: err}
		}
	}
	return en.finalize(), nil
}

func (en *engine) finalize() []entity.Record {
	return en.results.Finalize(en.p.SortField, en.p.SortReverse)
}

// expand 逐个选择器点击可见的折叠项
// 同一选择器最多尝试3轮,点到没有新目标为止;选择器没命中不算错误
func (en *engine) expand(ctx context.Context) {
	for _, selector := range en.p.ExpandSelectors {
		js := buildExpandJS(selector)
		for attempt := 0; attempt < 3; attempt++ {
			v, err := en.eval.Evaluate(ctx, js)
			if err != nil {
				log.Printf("展开 %s 失败,跳过: %v", selector, err)
				break
			}
			clicked := 0
			if n, ok := v.(float64); ok {
				clicked = int(n)
			}
			if clicked == 0 {
				break
			}
			log.Printf("展开 %d 个折叠项 (选择器 %s, 尝试 %d)", clicked, selector, attempt+1)
			if err := en.sleep(ctx, secondsToDuration(en.p.ExpandDelaySeconds)); err != nil {
				return
			}
		}
	}
}

// extract 执行提取脚本,失败时退避后重试一次,连续第二次失败才上抛
func (en *engine) extract(ctx context.Context) ([]any, error) {
	v, err := en.eval.Evaluate(ctx, en.extractJS)
	if err != nil {
		log.Printf("提取失败,%s 后重试: %v", en.backoff, err)
		if serr := en.sleep(ctx, en.backoff); serr != nil {
			return nil, serr
		}
		v, err = en.eval.Evaluate(ctx, en.extractJS)
		if err != nil {
			return nil, err
		}
	}
	items, _ := v.([]any)
	return items, nil
}

// merge 把本轮原始条目过流水线后合入结果集,返回实际新增数
func (en *engine) merge(items []any) int {
	newCount := 0
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		rec, keep := processItem(en.p, entity.RawItem(m))
		if !keep {
			continue
		}
		if en.results.Insert(dedupKey(en.p, rec), rec) {
			newCount++
		}
	}
	return newCount
}

func (en *engine) scroll(ctx context.Context) error {
	if _, err := en.eval.Evaluate(ctx, en.scrollJS); err != nil {
		// 滚动失败与提取失败同样对待:退避重试一次
		log.Printf("滚动失败,%s 后重试: %v", en.backoff, err)
		if serr := en.sleep(ctx, en.backoff); serr != nil {
			return serr
		}
		if _, err = en.eval.Evaluate(ctx, en.scrollJS); err != nil {
			return err
		}
	}
	return en.sleep(ctx, secondsToDuration(en.p.ScrollDelaySeconds))
}

func (en *engine) checkDetached() error {
	if en.detached == nil {
		return nil
	}
	select {
	case <-en.detached:
		// 收到事件或通道因会话关闭而被关掉,都视为目标已分离
		return ErrTargetDetached
	default:
		return nil
	}
}

// sleep 可被取消/分离打断的等待
func (en *engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return en.checkDetached()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-en.detached:
		return ErrTargetDetached
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
