package cdp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
)

// Chrome 的单条 CDP 消息可能很大(整页innerText),放宽读取上限到32MB
const maxMessageSize = 32 * 1024 * 1024

// transport 持有到调试目标的唯一一条 WebSocket 连接
// 只负责封帧与收发,命令/响应的对应关系由 Session 维护
type transport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func dialTransport(ctx context.Context, wsURL string, timeout time.Duration) (*transport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		// 页面快照消息体较大,缓冲区相应放大
		ReadBufferSize:  1024 * 1024,
		WriteBufferSize: 1024 * 1024,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &ConnectionError{Endpoint: wsURL, Err: err}
	}
	conn.SetReadLimit(maxMessageSize)
	return &transport{conn: conn}, nil
}

// send 序列化并写出一条命令,写操作串行化,多个并发调用方共用一条连接
func (t *transport) send(msg *cdproto.Message) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, buf)
}

// receive 阻塞读取下一条消息,只允许读循环这一个调用方
func (t *transport) receive() (*cdproto.Message, error) {
	_, buf, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg cdproto.Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (t *transport) close() error {
	return t.conn.Close()
}
