package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 字段处理器与条目过滤器都是具名纯函数,作用在解码后的JSON值域上
// (string | float64 | bool | nil | 嵌套map/slice),不携带副作用
// 处理器失败由流水线兜底回退原始值,这里只管报错

// Processor 把单个字段的原始值变换为目标值
type Processor func(value any) (any, error)

// Filter 决定整条记录去留,返回错误等同于"不保留"
type Filter func(item map[string]any) (bool, error)

// Trim 去掉首尾空白
func Trim() Processor {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("期望字符串,得到 %T", value)
		}
		return strings.TrimSpace(s), nil
	}
}

var countPattern = regexp.MustCompile(`([\d.]+)\s*([KkMm万])?`)

// Number 解析人类可读的计数文本,如 "1,234"、"1.2K"、"3.4万"
// 没有数字时报错(由流水线回退原始值)
func Number() Processor {
	return func(value any) (any, error) {
		switch n := value.(type) {
		case float64:
			return int(n), nil
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
			cleaned = strings.ReplaceAll(cleaned, " ", "")
			m := countPattern.FindStringSubmatch(cleaned)
			if m == nil || m[1] == "" {
				return nil, fmt.Errorf("无法从 %q 解析数字", n)
			}
			f, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("无法从 %q 解析数字: %w", n, err)
			}
			switch m[2] {
			case "K", "k":
				f *= 1000
			case "M", "m":
				f *= 1000000
			case "万":
				f *= 10000
			}
			return int(f), nil
		}
		return nil, fmt.Errorf("期望字符串或数字,得到 %T", value)
	}
}

// RegexpCapture 取正则第一个捕获组,典型用法是从推文链接里抠出status id
// 模式是写死在预设里的字面量,编译失败直接panic
func RegexpCapture(pattern string) Processor {
	re := regexp.MustCompile(pattern)
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("期望字符串,得到 %T", value)
		}
		m := re.FindStringSubmatch(s)
		if m == nil || len(m) < 2 {
			return nil, fmt.Errorf("%q 未匹配模式 %s", s, pattern)
		}
		return m[1], nil
	}
}

// MinNumber 仅保留指定字段数值大于阈值的记录
func MinNumber(field string, min float64) Filter {
	return func(item map[string]any) (bool, error) {
		v, ok := item[field]
		if !ok || v == nil {
			return false, nil
		}
		switch n := v.(type) {
		case float64:
			return n > min, nil
		case int:
			return float64(n) > min, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return false, fmt.Errorf("字段 %s 的值 %q 不是数字", field, n)
			}
			return f > min, nil
		}
		return false, fmt.Errorf("字段 %s 的类型 %T 不可比较", field, v)
	}
}

// NonEmpty 要求指定字段存在且非空
func NonEmpty(field string) Filter {
	return func(item map[string]any) (bool, error) {
		v, ok := item[field]
		if !ok || v == nil {
			return false, nil
		}
		s, ok := v.(string)
		if ok && strings.TrimSpace(s) == "" {
			return false, nil
		}
		return true, nil
	}
}
