package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

const maxFrameBytes = 1 << 20

// WebSocketDialer opens push connections with github.com/coder/websocket.
type WebSocketDialer struct {
	// Header is sent with the handshake, e.g. Authorization.
	Header http.Header
}

// Dial performs the websocket handshake.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: d.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameBytes)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w *wsConn) Close() error {
	return w.conn.CloseNow()
}
