package cdp

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/runtime"
)

// Executor 在附加页面的JS上下文中执行表达式并取回JSON可序列化的结果
// DOM查询、滚动、点击全部经由这里
type Executor struct {
	sess *Session
}

func NewExecutor(sess *Session) *Executor {
	return &Executor{sess: sess}
}

// Evaluate 执行一条表达式,返回解码后的值
// 页面侧抛异常时必须报 EvaluationError 而不是悄悄返回nil,
// 上层要靠这个区分"选择器没匹配到"(合法空结果)和"执行失败"(需要重试/终止)
func (e *Executor) Evaluate(ctx context.Context, expression string) (any, error) {
	params, err := json.Marshal(&runtime.EvaluateParams{
		Expression:    expression,
		ReturnByValue: true,
		AwaitPromise:  true,
	})
	if err != nil {
		return nil, err
	}

	res, err := e.sess.Call(ctx, cdproto.CommandRuntimeEvaluate, params)
	if err != nil {
		return nil, err
	}

	var ret runtime.EvaluateReturns
	if err := json.Unmarshal(res, &ret); err != nil {
		return nil, err
	}
	if ret.ExceptionDetails != nil {
		evalErr := &EvaluationError{Text: ret.ExceptionDetails.Text}
		if ret.ExceptionDetails.Exception != nil {
			evalErr.Detail = ret.ExceptionDetails.Exception.Description
		}
		return nil, evalErr
	}
	if ret.Result == nil || len(ret.Result.Value) == 0 {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(ret.Result.Value, &value); err != nil {
		return nil, err
	}
	return value, nil
}
