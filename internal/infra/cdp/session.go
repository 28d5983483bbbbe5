package cdp

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/mailru/easyjson"
)

// 每个订阅通道的缓冲大小,事件消费不过来时丢弃并告警,绝不阻塞读循环
const eventBufferSize = 16

// Session 在一条物理连接上复用多对命令/响应外加一路事件流
// 核心不变量是 pending 表:每个id至多一个等待者,
// 且只被移除一次(响应到达、超时或关闭)
type Session struct {
	tr          *transport
	callTimeout time.Duration

	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan *cdproto.Message
	subs    map[cdproto.MethodType]map[int64]chan easyjson.RawMessage
	nextSub int64
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

// Connect 建立到目标 webSocketDebuggerUrl 的会话并启动读循环
func Connect(ctx context.Context, wsURL string, connectTimeout, callTimeout time.Duration) (*Session, error) {
	tr, err := dialTransport(ctx, wsURL, connectTimeout)
	if err != nil {
		return nil, err
	}
	s := &Session{
		tr:          tr,
		callTimeout: callTimeout,
		pending:     make(map[int64]chan *cdproto.Message),
		subs:        make(map[cdproto.MethodType]map[int64]chan easyjson.RawMessage),
		done:        make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Call 发送一条命令并挂起等待对应id的响应
// 并发调用安全;响应乱序到达时只按id路由,与发送顺序无关
func (s *Session) Call(ctx context.Context, method cdproto.MethodType, params easyjson.RawMessage) (easyjson.RawMessage, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	id := s.nextID.Add(1)
	ch := make(chan *cdproto.Message, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &ClosedError{}
	}
	s.pending[id] = ch
	s.mu.Unlock()

	msg := &cdproto.Message{
		ID:     id,
		Method: method,
		Params: params,
	}
	if err := s.tr.send(msg); err != nil {
		s.removePending(id)
		select {
		case <-s.done:
			return nil, &ClosedError{}
		default:
		}
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, &ProtocolError{Method: method, Remote: resp.Error}
		}
		return resp.Result, nil
	case <-s.done:
		return nil, &ClosedError{}
	case <-ctx.Done():
		s.removePending(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method, Timeout: s.callTimeout}
		}
		return nil, ctx.Err()
	}
}

// Subscribe 订阅一个事件名,返回事件载荷通道和取消函数
// 同名事件多个订阅者各自收到每一条(扇出,不是抢占消费)
// 会话关闭时通道被关闭
func (s *Session) Subscribe(method cdproto.MethodType) (<-chan easyjson.RawMessage, func()) {
	ch := make(chan easyjson.RawMessage, eventBufferSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	subID := s.nextSub
	if s.subs[method] == nil {
		s.subs[method] = make(map[int64]chan easyjson.RawMessage)
	}
	s.subs[method][subID] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m, ok := s.subs[method]; ok {
			if c, ok := m[subID]; ok {
				delete(m, subID)
				close(c)
			}
		}
	}
	return ch, cancel
}

// Close 终止连接,所有在途 Call 立即以 ClosedError 失败,可重复调用
func (s *Session) Close() error {
	s.closeWith(nil)
	return nil
}

func (s *Session) closeWith(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id := range s.pending {
			delete(s.pending, id)
		}
		for method, m := range s.subs {
			for subID, ch := range m {
				delete(m, subID)
				close(ch)
			}
			delete(s.subs, method)
		}
		s.mu.Unlock()

		close(s.done)
		s.tr.close()
		if cause != nil {
			log.Printf("会话连接中断: %v", cause)
		}
	})
}

func (s *Session) removePending(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// readLoop 是连接的唯一读取方,把响应按id派发给等待者,把事件扇出给订阅者
// 任何派发都不允许阻塞这里,否则一个慢调用方会卡住整条连接
func (s *Session) readLoop() {
	for {
		msg, err := s.tr.receive()
		if err != nil {
			s.closeWith(err)
			return
		}
		if msg.ID != 0 {
			s.mu.Lock()
			ch, ok := s.pending[msg.ID]
			if ok {
				delete(s.pending, msg.ID)
			}
			s.mu.Unlock()
			if ok {
				// 容量为1且仅此处发送,不会阻塞
				ch <- msg
			}
			// 等待者已超时离开时直接丢弃,id不会复用,不存在二次投递
			continue
		}
		if msg.Method == "" {
			continue
		}
		// 发送放在锁内,与关闭订阅通道互斥;发送本身非阻塞,不会拖住锁
		s.mu.Lock()
		for _, ch := range s.subs[msg.Method] {
			select {
			case ch <- msg.Params:
			default:
				log.Printf("事件 %s 的订阅者消费过慢,丢弃一条事件", msg.Method)
			}
		}
		s.mu.Unlock()
	}
}
