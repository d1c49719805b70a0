package realtime

import (
    "net/http"
    "strconv"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
)

// upgrader promotes HTTP requests to WebSocket connections. Origin checks
// are left to the deployment's reverse proxy, matching the rest of the API
// surface which is token-authenticated rather than cookie-authenticated.
var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// ServeWS returns the GET /v1/ws handler. It subscribes the connection to
// the requesting user's own channel; the channel name is derived from the
// authenticated identity in the context, never from a client-supplied
// parameter, so a client cannot listen on someone else's room.
//
// The subscription is released on every exit path: client disconnect,
// write failure, or server shutdown of the connection.
func ServeWS(hub *Hub) echo.HandlerFunc {
    return func(c echo.Context) error {
        userID, err := contextUserID(c)
        if err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
        if err != nil {
            // Upgrade has already written its own error response.
            return nil
        }

        sub := hub.Subscribe(UserChannel(userID))
        defer sub.Close()
        defer func() { _ = conn.Close() }()

        // Reader goroutine: the client sends nothing meaningful, but reading
        // is how gorilla surfaces close frames and dead peers.
        done := make(chan struct{})
        go func() {
            defer close(done)
            for {
                if _, _, err := conn.ReadMessage(); err != nil {
                    return
                }
            }
        }()

        for {
            select {
            case <-done:
                return nil
            case msg, ok := <-sub.C:
                if !ok {
                    return nil
                }
                _ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
                if err := conn.WriteJSON(msg); err != nil {
                    return nil
                }
            }
        }
    }
}

// contextUserID extracts the authenticated user id that the JWT middleware
// stored in the Echo context.
func contextUserID(c echo.Context) (uint64, error) {
    switch v := c.Get("user_id").(type) {
    case uint64:
        return v, nil
    case float64:
        return uint64(v), nil
    case string:
        return strconv.ParseUint(v, 10, 64)
    }
    return 0, echo.ErrUnauthorized
}
