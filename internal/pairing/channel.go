package pairing

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "sync"
    "time"

    "github.com/gorilla/websocket"

    "github.com/modtap/card-link/internal/realtime"
)

// Channel is the desktop role's view of its own notification channel. The
// server decides which channel the subscriber is placed on (derived from
// the authenticated identity), so Subscribe takes no channel name.
//
// Subscribe returns a receive stream and a release function. The release
// function is idempotent and guarantees that no messages are delivered
// after it returns; the stream is closed when the subscription ends for
// any reason.
type Channel interface {
    Subscribe(ctx context.Context) (<-chan realtime.Message, func(), error)
}

// WSChannel subscribes over the server's GET /v1/ws endpoint using
// gorilla/websocket.
type WSChannel struct {
    URL    string // e.g. wss://api.modtap.io/v1/ws
    Token  string // access token of the authenticated user
    Dialer *websocket.Dialer
}

func (w *WSChannel) dialer() *websocket.Dialer {
    if w.Dialer != nil {
        return w.Dialer
    }
    return websocket.DefaultDialer
}

// Subscribe dials the endpoint and pumps incoming messages into the
// returned stream until the connection drops, the context is cancelled or
// the release function is called.
func (w *WSChannel) Subscribe(ctx context.Context) (<-chan realtime.Message, func(), error) {
    header := http.Header{}
    if w.Token != "" {
        header.Set("Authorization", "Bearer "+w.Token)
    }
    conn, _, err := w.dialer().DialContext(ctx, w.URL, header)
    if err != nil {
        return nil, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
    }

    out := make(chan realtime.Message, 8)
    done := make(chan struct{})

    go func() {
        defer close(out)
        for {
            var wire struct {
                Event   string          `json:"event"`
                Payload json.RawMessage `json:"payload"`
            }
            if err := conn.ReadJSON(&wire); err != nil {
                return
            }
            msg := realtime.Message{Event: wire.Event, Payload: wire.Payload}
            select {
            case out <- msg:
            case <-done:
                return
            }
        }
    }()

    var once sync.Once
    release := func() {
        once.Do(func() {
            close(done)
            _ = conn.WriteControl(websocket.CloseMessage,
                websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
                time.Now().Add(time.Second))
            _ = conn.Close()
        })
    }

    // The watcher must exit on release too, or every subscription whose
    // context never cancels would strand a goroutine.
    go func() {
        select {
        case <-ctx.Done():
            release()
        case <-done:
        }
    }()

    return out, release, nil
}

// HubChannel adapts an in-process realtime.Hub to the Channel interface.
// It serves same-process deployments and tests, where no WebSocket hop is
// needed.
type HubChannel struct {
    Hub    *realtime.Hub
    UserID uint64
}

func (h *HubChannel) Subscribe(ctx context.Context) (<-chan realtime.Message, func(), error) {
    sub := h.Hub.Subscribe(realtime.UserChannel(h.UserID))
    released := make(chan struct{})
    var once sync.Once
    release := func() {
        once.Do(func() {
            close(released)
            sub.Close()
        })
    }
    go func() {
        select {
        case <-ctx.Done():
            release()
        case <-released:
        }
    }()
    return sub.C, release, nil
}
