package spider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/LouYuanbo1/cdpspider/internal/domain/processor"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
	"github.com/mailru/easyjson"
	"github.com/stretchr/testify/require"
)

// fakeEvaluator 伪造的页面:rounds是每次滚动后DOM里可见的条目,
// 按脚本内容区分展开/滚动/提取三种调用
type fakeEvaluator struct {
	rounds [][]any
	cur    int

	extracts    int
	scrolls     int
	expands     int
	extractErrs []error // 每次提取调用依次弹出的错误,nil表示成功
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, js string) (any, error) {
	switch {
	case strings.Contains(js, expandedAttr):
		f.expands++
		return float64(0), nil
	case strings.Contains(js, "scrollTo") || strings.Contains(js, "scrollTop"):
		f.scrolls++
		if f.cur < len(f.rounds)-1 {
			f.cur++
		}
		return nil, nil
	default:
		f.extracts++
		if len(f.extractErrs) > 0 {
			err := f.extractErrs[0]
			f.extractErrs = f.extractErrs[1:]
			if err != nil {
				return nil, err
			}
		}
		return f.rounds[f.cur], nil
	}
}

func item(fields ...any) map[string]any {
	m := make(map[string]any)
	for i := 0; i+1 < len(fields); i += 2 {
		m[fields[i].(string)] = fields[i+1]
	}
	return m
}

func testExtractor() *param.Extractor {
	return &param.Extractor{
		Name:           "测试",
		URLPattern:     `example\.com`,
		ItemSelector:   ".item",
		FieldSelectors: map[string]string{"id": ".id", "text": ".text"},
		ScrollEnabled:  true,
		ScrollTimes:    10,
		IDField:        "id",
	}
}

func runEngine(t *testing.T, p *param.Extractor, f *fakeEvaluator, detached <-chan easyjson.RawMessage) ([]map[string]any, error) {
	t.Helper()
	en := newEngine(p, f, 2, 0, detached)
	recs, err := en.run(context.Background())
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out, err
}

// 第1轮3条全新,第2轮同样3条外加2条 → 共5条;
// 之后两轮0条新数据才收敛(阈值2)
func TestEngineConvergence(t *testing.T) {
	r1 := []any{
		item("id", "a", "text", "1"),
		item("id", "b", "text", "2"),
		item("id", "c", "text", "3"),
	}
	r2 := append(append([]any{}, r1...),
		item("id", "d", "text", "4"),
		item("id", "e", "text", "5"),
	)
	f := &fakeEvaluator{rounds: [][]any{r1, r2, r2, r2}}

	recs, err := runEngine(t, testExtractor(), f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	// 第3轮空计1,第4轮空计2后停止:共4次提取,3次滚动
	require.Equal(t, 4, f.extracts)
	require.Equal(t, 3, f.scrolls)
}

// 即使每轮都有新数据,滚动轮数也不越过上限
func TestEngineScrollCap(t *testing.T) {
	var rounds [][]any
	for i := 0; i < 20; i++ {
		var items []any
		for j := 0; j <= i; j++ {
			items = append(items, item("id", fmt.Sprintf("%d-%d", i, j)))
		}
		rounds = append(rounds, items)
	}
	p := testExtractor()
	p.ScrollTimes = 3
	f := &fakeEvaluator{rounds: rounds}

	_, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Equal(t, 3, f.extracts)
	require.LessOrEqual(t, f.scrolls, 3)
}

// 关闭滚动时只提取一轮
func TestEngineSingleShot(t *testing.T) {
	p := testExtractor()
	p.ScrollEnabled = false
	f := &fakeEvaluator{rounds: [][]any{{item("id", "a")}}}

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 1, f.extracts)
	require.Zero(t, f.scrolls)
}

// 单次提取失败重试一次就恢复,不算运行失败
func TestEngineRetryRecovers(t *testing.T) {
	f := &fakeEvaluator{
		rounds:      [][]any{{item("id", "a")}},
		extractErrs: []error{errors.New("瞬时抖动"), nil},
	}
	p := testExtractor()
	p.ScrollTimes = 1

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 2, f.extracts)
}

// 连续第二次失败终止运行,但已收集的部分结果要交还
func TestEngineSecondFailureAbortsWithPartial(t *testing.T) {
	f := &fakeEvaluator{
		rounds: [][]any{
			{item("id", "a"), item("id", "b")},
			{item("id", "a")},
		},
		extractErrs: []error{nil, errors.New("崩了"), errors.New("还是崩")},
	}

	recs, err := runEngine(t, testExtractor(), f, nil)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, 2, extractionErr.Collected)
	require.Len(t, recs, 2)
}

// 相同id先到先得,后到的不同内容不覆盖
func TestEngineDedupFirstSeenWins(t *testing.T) {
	f := &fakeEvaluator{rounds: [][]any{{
		item("id", "a", "text", "第一次出现"),
		item("id", "a", "text", "后到的重复项"),
	}}}
	p := testExtractor()
	p.ScrollEnabled = false

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "第一次出现", recs[0]["text"])
}

// likeCount 过滤:50被拦下,150通过
func TestEngineItemFilter(t *testing.T) {
	f := &fakeEvaluator{rounds: [][]any{{
		item("id", "a", "likes", float64(50)),
		item("id", "b", "likes", float64(150)),
	}}}
	p := testExtractor()
	p.ScrollEnabled = false
	p.FieldSelectors["likes"] = ".likes"
	p.ItemFilter = processor.MinNumber("likes", 100)

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "b", recs[0]["id"])
}

// 处理器对非数字输入报错时保留原始值,整条记录不能丢
func TestEngineProcessorFailureKeepsRawValue(t *testing.T) {
	f := &fakeEvaluator{rounds: [][]any{{
		item("id", "a", "count", "abc"),
		item("id", "b", "count", "1.2K"),
	}}}
	p := testExtractor()
	p.ScrollEnabled = false
	p.FieldSelectors["count"] = ".count"
	p.FieldProcessors = map[string]processor.Processor{"count": processor.Number()}

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byID := map[any]any{}
	for _, r := range recs {
		byID[r["id"]] = r["count"]
	}
	require.Equal(t, "abc", byID["a"])
	require.Equal(t, 1200, byID["b"])
}

// 未配置idField时结构化键保证幂等:同一页面抓两次结果一致
func TestEngineIdempotentWithoutIDField(t *testing.T) {
	rounds := [][]any{{
		item("text", "hello", "time", "2026-01-01"),
		item("text", "world", "time", "2026-01-02"),
	}}
	p := testExtractor()
	p.ScrollEnabled = false
	p.IDField = ""

	first, err := runEngine(t, p, &fakeEvaluator{rounds: rounds}, nil)
	require.NoError(t, err)
	second, err := runEngine(t, p, &fakeEvaluator{rounds: rounds}, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first, 2)
}

// 排序字段生效且倒序
func TestEngineSortedFinalize(t *testing.T) {
	f := &fakeEvaluator{rounds: [][]any{{
		item("id", "a", "time", "2026-01-01"),
		item("id", "b", "time", "2026-03-01"),
		item("id", "c", "time", "2026-02-01"),
	}}}
	p := testExtractor()
	p.ScrollEnabled = false
	p.FieldSelectors["time"] = "time"
	p.SortField = "time"
	p.SortReverse = true

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Equal(t, "b", recs[0]["id"])
	require.Equal(t, "c", recs[1]["id"])
	require.Equal(t, "a", recs[2]["id"])
}

// 目标分离后尽快中止并交还部分结果
func TestEngineDetachedAborts(t *testing.T) {
	detached := make(chan easyjson.RawMessage)
	close(detached)
	f := &fakeEvaluator{rounds: [][]any{{item("id", "a")}}}

	_, err := runEngine(t, testExtractor(), f, detached)
	require.ErrorIs(t, err, ErrTargetDetached)
}

// 展开选择器没命中任何元素不是错误
func TestEngineExpandSilentOnMiss(t *testing.T) {
	p := testExtractor()
	p.ScrollEnabled = false
	p.ExpandSelectors = []string{".show-more", ".unfold"}
	f := &fakeEvaluator{rounds: [][]any{{item("id", "a")}}}

	recs, err := runEngine(t, p, f, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	// 每个选择器点不出东西就只试一次
	require.Equal(t, 2, f.expands)
}
