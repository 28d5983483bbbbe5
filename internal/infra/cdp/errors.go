package cdp

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto"
)

// ConnectionError 调试端点不可达或握手失败,不重试,直接上报
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("无法连接调试端点 %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TargetNotFoundError 没有页面匹配URL模式,需要用户在浏览器中打开目标页面
type TargetNotFoundError struct {
	Pattern string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("未找到匹配 %q 的页面", e.Pattern)
}

// AmbiguousTargetError 多个页面匹配同一模式
// 附加到错误的标签页会悄悄污染结果,所以宁可报错让用户自己选
type AmbiguousTargetError struct {
	Pattern string
	URLs    []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("模式 %q 匹配到 %d 个页面: %s",
		e.Pattern, len(e.URLs), strings.Join(e.URLs, ", "))
}

// TimeoutError 单条命令超时,超时只影响这一条命令
type TimeoutError struct {
	Method  cdproto.MethodType
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("命令 %s 等待响应超时(%s)", e.Method, e.Timeout)
}

// ProtocolError 浏览器返回了error载荷
type ProtocolError struct {
	Method cdproto.MethodType
	Remote *cdproto.Error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("命令 %s 远端返回错误: %v", e.Method, e.Remote)
}

func (e *ProtocolError) Unwrap() error { return e.Remote }

// ClosedError 会话已关闭,所有在途命令以此错误结束
type ClosedError struct{}

func (e *ClosedError) Error() string { return "会话已关闭" }

// EvaluationError 页面内JS抛出了异常
// 与"选择器没匹配到元素"(合法,返回null)严格区分
type EvaluationError struct {
	Text   string
	Detail string
}

func (e *EvaluationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("页面JS执行异常: %s: %s", e.Text, e.Detail)
	}
	return fmt.Sprintf("页面JS执行异常: %s", e.Text)
}
