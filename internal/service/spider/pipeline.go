package spider

import (
	"fmt"
	"log"

	"github.com/LouYuanbo1/cdpspider/internal/domain/entity"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
)

// processItem 把一条RawItem过一遍字段流水线,返回记录和是否保留
// 单个字段处理失败只回退该字段的原始值,绝不因此丢弃整条记录;
// 过滤器返回false或报错时整条丢弃(丢弃不是错误)
func processItem(p *param.Extractor, raw entity.RawItem) (entity.Record, bool) {
	rec := make(entity.Record, len(raw))
	for k, v := range raw {
		rec[k] = v
	}

	for field, proc := range p.FieldProcessors {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		processed, err := proc(v)
		if err != nil {
			log.Printf("字段 %s 处理失败,保留原始值: %v", field, err)
			continue
		}
		rec[field] = processed
	}

	if p.ItemFilter != nil {
		keep, err := p.ItemFilter(rec)
		if err != nil {
			log.Printf("过滤器执行失败,按不保留处理: %v", err)
			return nil, false
		}
		if !keep {
			return nil, false
		}
	}
	return rec, true
}

// dedupKey 计算去重键:配置了idField且取到非空值时用它,
// 否则退回到对全部字段值的结构化哈希
func dedupKey(p *param.Extractor, rec entity.Record) string {
	if p.IDField != "" {
		if v, ok := rec[p.IDField]; ok && v != nil {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	return entity.StructuralKey(rec)
}
