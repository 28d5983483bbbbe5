package entity

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// RawItem 单轮提取中每个DOM元素产出的原始字段映射
// 值为字符串、null(选择器未命中)或链接href,只在一轮内存在
type RawItem map[string]any

// Record 经过字段处理与过滤后的条目,结果集中的存储单元
type Record map[string]any

// ResultSet 按插入序保存去重后的记录
// 一次运行期间只增不减,由提取引擎独占写入,结束后整体移交调用方
type ResultSet struct {
	keys  []string
	items map[string]Record
}

func NewResultSet() *ResultSet {
	return &ResultSet{items: make(map[string]Record)}
}

// Insert 仅在key未出现过时写入,返回是否真的插入(先到先得)
func (rs *ResultSet) Insert(key string, rec Record) bool {
	if _, ok := rs.items[key]; ok {
		return false
	}
	rs.keys = append(rs.keys, key)
	rs.items[key] = rec
	return true
}

func (rs *ResultSet) Len() int {
	return len(rs.keys)
}

// Records 按插入序返回记录副本
func (rs *ResultSet) Records() []Record {
	out := make([]Record, 0, len(rs.keys))
	for _, k := range rs.keys {
		out = append(out, rs.items[k])
	}
	return out
}

// Finalize 结束一次运行:按需排序后移交记录,此后引擎不再改动
func (rs *ResultSet) Finalize(sortField string, reverse bool) []Record {
	out := rs.Records()
	if sortField == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		less := compareValues(out[i][sortField], out[j][sortField])
		if reverse {
			return !less && !equalValues(out[i][sortField], out[j][sortField])
		}
		return less
	})
	return out
}

// StructuralKey 对全部字段值做确定性哈希,作为未配置idField时的去重键
// 相同内容跨运行稳定,重复抓取同一页面因此是幂等的
func StructuralKey(rec Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		// fmt 对 map 按键排序输出,嵌套值同样确定
		fmt.Fprintf(h, "%s=%v\n", k, rec[k])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// compareValues 数值按数值比,其余按字符串比,null排最前
func compareValues(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	return stringify(a) < stringify(b)
}

func equalValues(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return stringify(a) == stringify(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
