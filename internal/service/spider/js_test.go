package spider

import (
	"strings"
	"testing"

	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
	"github.com/stretchr/testify/require"
)

func TestBuildExtractJSQuotesSelectors(t *testing.T) {
	p := &param.Extractor{
		ItemSelector: `article[data-testid="tweet"]`,
		FieldSelectors: map[string]string{
			"text": `div[data-testid="tweetText"]`,
		},
	}
	js := buildExtractJS(p)
	// 含双引号的选择器必须以转义后的字面量进入脚本
	require.Contains(t, js, `"article[data-testid=\"tweet\"]"`)
	require.Contains(t, js, `"div[data-testid=\"tweetText\"]"`)
	require.Contains(t, js, "querySelectorAll")
}

// 链接语义的字段优先取href而不是文本
func TestBuildExtractJSLinkFieldPrefersHref(t *testing.T) {
	p := &param.Extractor{
		ItemSelector: ".item",
		FieldSelectors: map[string]string{
			"link": "a.permalink",
			"text": ".body",
		},
	}
	js := buildExtractJS(p)
	require.Contains(t, js, "text = el.getAttribute('href') || '';")
}

func TestLinkField(t *testing.T) {
	for _, name := range []string{"link", "url", "post_link", "avatar_url"} {
		require.True(t, linkField(name), name)
	}
	for _, name := range []string{"text", "title", "linkage", "curl"} {
		require.False(t, linkField(name), name)
	}
}

func TestBuildExpandJSMarksClicked(t *testing.T) {
	js := buildExpandJS(".show-more")
	require.Contains(t, js, `".show-more"`)
	// 点击前检查并写入标记,保证同一按钮不被点两次
	require.Equal(t, 2, strings.Count(js, expandedAttr))
	require.Contains(t, js, "offsetParent")
}

func TestBuildScrollJSContainer(t *testing.T) {
	p := &param.Extractor{ScrollSelector: ".feed"}
	js := buildScrollJS(p)
	require.Contains(t, js, `".feed"`)
	require.Contains(t, js, "scrollTop")
}

func TestBuildScrollJSWindow(t *testing.T) {
	js := buildScrollJS(&param.Extractor{})
	require.Contains(t, js, "window.scrollTo")
	require.Contains(t, js, "document.body.scrollHeight")
}
