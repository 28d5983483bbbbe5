package spider

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
)

// 点击过的展开元素打上标记,避免反复点击同一个按钮
const expandedAttr = "data-cdpspider-expanded"

// jsString 把Go字符串安全地嵌进生成的JS
// strconv.Quote 的转义形式是合法的JS字符串字面量
func jsString(s string) string {
	return strconv.Quote(s)
}

// linkField 判断字段是否按链接语义提取(优先取href而不是文本)
func linkField(name string) bool {
	switch {
	case name == "link", name == "url":
		return true
	case strings.HasSuffix(name, "_link"), strings.HasSuffix(name, "_url"):
		return true
	}
	return false
}

// buildExtractJS 生成一轮提取脚本:对每个itemSelector命中的元素,
// 按fieldSelectors产出一个对象;字段未命中时取null,不算错误
// 文本优先 innerText(包含展开后的内容),退而求其次 textContent/href/aria-label
func buildExtractJS(p *param.Extractor) string {
	names := make([]string, 0, len(p.FieldSelectors))
	for name := range p.FieldSelectors {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields strings.Builder
	for _, name := range names {
		selector := p.FieldSelectors[name]
		nameJS := jsString(name)
		var prefer string
		if linkField(name) {
			prefer = "text = el.getAttribute('href') || '';"
		}
		fields.WriteString(fmt.Sprintf(`
      try {
        const el = root.querySelector(%s);
        if (!el) {
          item[%s] = null;
        } else {
          let text = '';
          %s
          if (!text) { text = el.innerText || el.textContent || ''; }
          if (!text && el.getAttribute('href')) { text = el.getAttribute('href'); }
          if (!text && el.getAttribute('aria-label')) { text = el.getAttribute('aria-label'); }
          item[%s] = text.trim();
        }
      } catch (e) { item[%s] = null; }
`, jsString(selector), nameJS, prefer, nameJS, nameJS))
	}

	return fmt.Sprintf(`
(function() {
  const items = [];
  document.querySelectorAll(%s).forEach((root) => {
    const item = {};
%s
    items.push(item);
  });
  return items;
})()`, jsString(p.ItemSelector), fields.String())
}

// buildExpandJS 点击当前可见且未点过的展开元素,返回点击数
// offsetParent 为 null 说明元素不可见,跳过
func buildExpandJS(selector string) string {
	return fmt.Sprintf(`
(function() {
  const els = document.querySelectorAll(%s);
  let clicked = 0;
  els.forEach((el) => {
    if (el && el.offsetParent !== null && !el.getAttribute('%s')) {
      el.setAttribute('%s', 'true');
      el.click();
      clicked++;
    }
  });
  return clicked;
})()`, jsString(selector), expandedAttr, expandedAttr)
}

// buildScrollJS 滚动指定容器,未配置容器时滚动整个页面
func buildScrollJS(p *param.Extractor) string {
	if p.ScrollSelector != "" {
		return fmt.Sprintf(`
(function() {
  const c = document.querySelector(%s);
  if (c) { c.scrollTop = c.scrollHeight; return true; }
  return false;
})()`, jsString(p.ScrollSelector))
	}
	return `window.scrollTo({top: document.body.scrollHeight, behavior: 'smooth'});`
}
