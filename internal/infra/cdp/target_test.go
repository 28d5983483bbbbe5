package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/LouYuanbo1/cdpspider/internal/config"
	"github.com/chromedp/cdproto"
	"github.com/stretchr/testify/require"
)

// newFakeBrowser 起一个带 /json/version、/json/list 和页面WebSocket端点的假浏览器
// 返回指向它的配置
func newFakeBrowser(t *testing.T, pages []Target, handler func(fc *fakeConn, msg *cdproto.Message)) *config.Config {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().String()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Browser":"FakeChrome/1.0"}`)
	})
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, r *http.Request) {
		out := make([]Target, len(pages))
		for i, p := range pages {
			p.WebSocketDebuggerURL = fmt.Sprintf("ws://%s/devtools/page/%s", addr, p.ID)
			out[i] = p
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/devtools/page/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fc := &fakeConn{conn: conn}
		for {
			_, buf, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg cdproto.Message
			if err := json.Unmarshal(buf, &msg); err != nil {
				continue
			}
			if handler != nil {
				handler(fc, &msg)
			}
		}
	})

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Chrome.Host = host
	cfg.Chrome.Port = port
	cfg.Chrome.ConnectTimeoutSeconds = 2
	cfg.Chrome.CallTimeoutSeconds = 5
	return cfg
}

func TestCheckBrowser(t *testing.T) {
	cfg := newFakeBrowser(t, nil, nil)
	browser, err := CheckBrowser(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "FakeChrome/1.0", browser)
}

func TestCheckBrowserUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chrome.Host = "127.0.0.1"
	cfg.Chrome.Port = 1
	cfg.Chrome.ConnectTimeoutSeconds = 1

	_, err := CheckBrowser(context.Background(), cfg)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestAttachSelectsSingleMatch(t *testing.T) {
	cfg := newFakeBrowser(t, []Target{
		{ID: "1", Type: "page", Title: "Home", URL: "https://x.com/home"},
		{ID: "2", Type: "page", Title: "Profile", URL: "https://x.com/elonmusk"},
		// 非page类型和devtools页面都要被排除
		{ID: "3", Type: "background_page", URL: "https://x.com/elonmusk"},
		{ID: "4", Type: "page", URL: "devtools://devtools/bundled/inspector.html?ws=x.com/elonmusk"},
	}, nil)

	sess, target, err := Attach(context.Background(), cfg, `x\.com/elonmusk`)
	require.NoError(t, err)
	defer sess.Close()
	require.Equal(t, "2", target.ID)
	require.Equal(t, "https://x.com/elonmusk", target.URL)
}

func TestAttachNoMatch(t *testing.T) {
	cfg := newFakeBrowser(t, []Target{
		{ID: "1", Type: "page", URL: "https://example.com"},
	}, nil)

	_, _, err := Attach(context.Background(), cfg, `x\.com/elonmusk`)
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestAttachAmbiguous(t *testing.T) {
	cfg := newFakeBrowser(t, []Target{
		{ID: "1", Type: "page", URL: "https://x.com/elonmusk"},
		{ID: "2", Type: "page", URL: "https://x.com/elonmusk/with_replies"},
	}, nil)

	_, _, err := Attach(context.Background(), cfg, `x\.com/elonmusk`)
	var ambiguous *AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	require.Len(t, ambiguous.URLs, 2)
}

func TestAttachBadPattern(t *testing.T) {
	cfg := newFakeBrowser(t, nil, nil)
	_, _, err := Attach(context.Background(), cfg, `([`)
	require.Error(t, err)
}
