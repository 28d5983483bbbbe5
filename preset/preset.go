package preset

import (
	"fmt"

	"github.com/LouYuanbo1/cdpspider/internal/domain/processor"
	"github.com/LouYuanbo1/cdpspider/internal/service/spider/param"
)

// 常用网站的预设提取器配置
// 选择器都是站点当前DOM结构的字面量,站点改版后需要跟着更新

// Twitter 抓取指定用户主页的推文
// 浏览器中需要已登录并打开 x.com/<username> 页面
func Twitter(username string) *param.Extractor {
	return &param.Extractor{
		Name:         fmt.Sprintf("Twitter @%s", username),
		URLPattern:   fmt.Sprintf(`x\.com/%s`, username),
		ItemSelector: `article[data-testid="tweet"]`,
		FieldSelectors: map[string]string{
			"id":       `a[href*="/status/"]`,
			"text":     `[data-testid="tweetText"]`,
			"time":     `time`,
			"author":   `div[data-testid="User-Name"] a`,
			"likes":    `[data-testid="like"]`,
			"replies":  `[data-testid="reply"]`,
			"retweets": `[data-testid="retweet"]`,
		},
		ScrollEnabled:      true,
		ScrollTimes:        50,
		ScrollDelaySeconds: 2.5,
		ExpandSelectors: []string{
			// Twitter 官方的长文本展开按钮
			`[data-testid="tweet-text-show-more-link"]`,
		},
		ExpandDelaySeconds: 1.5,
		FieldProcessors: map[string]processor.Processor{
			"id":       processor.RegexpCapture(`/status/(\d+)`),
			"likes":    processor.Number(),
			"replies":  processor.Number(),
			"retweets": processor.Number(),
		},
		IDField:     "id",
		SortField:   "time",
		SortReverse: true,
	}
}

// ZhihuAnswers 抓取知乎问题页的回答
func ZhihuAnswers() *param.Extractor {
	return &param.Extractor{
		Name:         "知乎回答",
		URLPattern:   `zhihu\.com/question/\d+`,
		ItemSelector: `.AnswerCard, .ContentItem.AnswerItem`,
		FieldSelectors: map[string]string{
			"author":  `.AuthorInfo-name`,
			"content": `.RichContent-inner`,
			"votes":   `.VoteButton--up`,
		},
		ScrollEnabled:      true,
		ScrollTimes:        30,
		ScrollDelaySeconds: 2,
		ExpandSelectors:    []string{`.ContentItem-more`, `.RichContent-inner--collapsed`},
		ExpandDelaySeconds: 1,
		FieldProcessors: map[string]processor.Processor{
			"votes": processor.Number(),
		},
	}
}

// DoubanReviews 抓取豆瓣影评/书评列表
func DoubanReviews() *param.Extractor {
	return &param.Extractor{
		Name:         "豆瓣评论",
		URLPattern:   `douban\.com/subject/\d+/reviews`,
		ItemSelector: `.review-item`,
		FieldSelectors: map[string]string{
			"title":   `.main-bd h2 a`,
			"link":    `.main-bd h2 a`,
			"author":  `.main-hd .name`,
			"rating":  `.main-title-rating`,
			"content": `.short-content`,
			"votes":   `.action-btn.up span`,
		},
		ScrollEnabled:      true,
		ScrollTimes:        20,
		ScrollDelaySeconds: 2,
		FieldProcessors: map[string]processor.Processor{
			"votes": processor.Number(),
		},
		IDField: "link",
	}
}

// GithubIssues 抓取GitHub仓库的issue列表
// GitHub 用分页而不是无限滚动,单次提取即可
func GithubIssues() *param.Extractor {
	return &param.Extractor{
		Name:         "GitHub Issues",
		URLPattern:   `github\.com/[^/]+/[^/]+/issues`,
		ItemSelector: `[data-testid="issue-row"]`,
		FieldSelectors: map[string]string{
			"title":  `a[data-testid="issue-title"]`,
			"number": `span[title]`,
			"status": `[data-testid="issue-row-status"]`,
			"author": `[data-testid="issue-row-author"]`,
		},
		ScrollEnabled: false,
	}
}

// ByName 按名字取预设,twitter需要额外的用户名参数
func ByName(name, arg string) (*param.Extractor, error) {
	switch name {
	case "twitter":
		if arg == "" {
			return nil, fmt.Errorf("twitter 预设需要用户名参数")
		}
		return Twitter(arg), nil
	case "zhihu":
		return ZhihuAnswers(), nil
	case "douban":
		return DoubanReviews(), nil
	case "github":
		return GithubIssues(), nil
	}
	return nil, fmt.Errorf("未知预设: %s", name)
}
