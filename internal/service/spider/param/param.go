package param

import (
	"fmt"

	"github.com/LouYuanbo1/cdpspider/internal/domain/processor"
)

// Extractor 一次抓取任务的完整描述,构造后不再修改
// 由调用方(cmd/预设)组装好传入,抓取核心不负责解析
type Extractor struct {
	// 标识
	Name       string `json:"name"`
	URLPattern string `json:"url_pattern"`

	// 提取
	ItemSelector   string            `json:"item_selector"`
	FieldSelectors map[string]string `json:"field_selectors"`

	// 滚动
	ScrollEnabled      bool    `json:"scroll_enabled"`
	ScrollTimes        int     `json:"scroll_times"`
	ScrollDelaySeconds float64 `json:"scroll_delay_seconds"`
	ScrollSelector     string  `json:"scroll_selector"`

	// 展开
	ExpandSelectors    []string `json:"expand_selectors"`
	ExpandDelaySeconds float64  `json:"expand_delay_seconds"`

	// 后处理,处理器和过滤器是代码里的具名函数,不参与序列化
	FieldProcessors map[string]processor.Processor `json:"-"`
	ItemFilter      processor.Filter               `json:"-"`

	// 去重与排序
	IDField     string `json:"id_field"`
	SortField   string `json:"sort_field"`
	SortReverse bool   `json:"sort_reverse"`
}

// Validate 检查配置自洽
// idField 必须是 fieldSelectors 或某个处理器会产出的字段
func (p *Extractor) Validate() error {
	if p.ItemSelector == "" {
		return fmt.Errorf("提取器 %s 缺少 item_selector", p.Name)
	}
	if len(p.FieldSelectors) == 0 {
		return fmt.Errorf("提取器 %s 缺少 field_selectors", p.Name)
	}
	if p.ScrollTimes < 0 {
		return fmt.Errorf("提取器 %s 的 scroll_times 不能为负", p.Name)
	}
	if p.IDField != "" {
		if _, ok := p.FieldSelectors[p.IDField]; !ok {
			if _, ok := p.FieldProcessors[p.IDField]; !ok {
				return fmt.Errorf("提取器 %s 的 id_field %q 不在 field_selectors 或 field_processors 中", p.Name, p.IDField)
			}
		}
	}
	return nil
}
