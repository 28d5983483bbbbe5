package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/LouYuanbo1/cdpspider/internal/config"
)

// Target 调试端点 /json/list 返回的一个可附加目标(标签页/worker等)
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// CheckBrowser 探测调试端点是否存活,返回浏览器版本字符串
func CheckBrowser(ctx context.Context, cfg *config.Config) (string, error) {
	endpoint := fmt.Sprintf("http://%s:%d/json/version", cfg.Chrome.Host, cfg.Chrome.Port)
	body, err := httpGetJSON(ctx, endpoint, connectTimeout(cfg))
	if err != nil {
		return "", &ConnectionError{Endpoint: endpoint, Err: err}
	}
	var version struct {
		Browser string `json:"Browser"`
	}
	if err := json.Unmarshal(body, &version); err != nil {
		return "", &ConnectionError{Endpoint: endpoint, Err: err}
	}
	if version.Browser == "" {
		return "unknown", nil
	}
	return version.Browser, nil
}

// ListTargets 拉取浏览器的全局目标列表
func ListTargets(ctx context.Context, cfg *config.Config) ([]Target, error) {
	endpoint := fmt.Sprintf("http://%s:%d/json/list", cfg.Chrome.Host, cfg.Chrome.Port)
	body, err := httpGetJSON(ctx, endpoint, connectTimeout(cfg))
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	var targets []Target
	if err := json.Unmarshal(body, &targets); err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Err: err}
	}
	return targets, nil
}

// Attach 在目标列表中用URL模式定位唯一的页面并建立会话
// 零个匹配或多个匹配都是错误:附加到错误的标签页比失败更糟
func Attach(ctx context.Context, cfg *config.Config, urlPattern string) (*Session, *Target, error) {
	re, err := regexp.Compile(urlPattern)
	if err != nil {
		return nil, nil, fmt.Errorf("URL模式非法 %q: %w", urlPattern, err)
	}

	targets, err := ListTargets(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var matched []Target
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		// devtools 自己的页面URL里也可能带上被调试页面的地址,排除掉
		if strings.Contains(t.URL, "devtools") {
			continue
		}
		if re.MatchString(t.URL) {
			matched = append(matched, t)
		}
	}

	switch len(matched) {
	case 0:
		return nil, nil, &TargetNotFoundError{Pattern: urlPattern}
	case 1:
	default:
		urls := make([]string, 0, len(matched))
		for _, t := range matched {
			urls = append(urls, t.URL)
		}
		return nil, nil, &AmbiguousTargetError{Pattern: urlPattern, URLs: urls}
	}

	target := matched[0]
	if target.WebSocketDebuggerURL == "" {
		return nil, nil, &ConnectionError{
			Endpoint: target.URL,
			Err:      fmt.Errorf("目标未暴露 webSocketDebuggerUrl"),
		}
	}
	sess, err := Connect(ctx, target.WebSocketDebuggerURL, connectTimeout(cfg), callTimeout(cfg))
	if err != nil {
		return nil, nil, err
	}
	return sess, &target, nil
}

func connectTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Chrome.ConnectTimeoutSeconds) * time.Second
}

func callTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Chrome.CallTimeoutSeconds) * time.Second
}

func httpGetJSON(ctx context.Context, endpoint string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("调试端点返回状态码 %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
