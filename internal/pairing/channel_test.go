package pairing

import (
    "context"
    "net/http/httptest"
    "runtime"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/modtap/card-link/internal/realtime"
)

// newWSServer hosts ServeWS behind a stub auth middleware and records the
// Authorization header each connection arrived with.
func newWSServer(hub *realtime.Hub, userID uint64, gotAuth *string) *httptest.Server {
    e := echo.New()
    e.GET("/v1/ws", realtime.ServeWS(hub), func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            *gotAuth = c.Request().Header.Get("Authorization")
            c.Set("user_id", userID)
            return next(c)
        }
    })
    return httptest.NewServer(e)
}

func wsURL(srv *httptest.Server) string {
    return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

func waitForSubscriber(t *testing.T, hub *realtime.Hub, channel string) {
    t.Helper()
    deadline := time.Now().Add(2 * time.Second)
    for time.Now().Before(deadline) {
        if hub.Count(channel) > 0 {
            return
        }
        time.Sleep(10 * time.Millisecond)
    }
    t.Fatalf("no subscriber appeared on %s", channel)
}

func TestWSChannelRoundTrip(t *testing.T) {
    hub := realtime.NewHub()
    var gotAuth string
    srv := newWSServer(hub, 42, &gotAuth)
    defer srv.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    ch := &WSChannel{URL: wsURL(srv), Token: "access-token"}
    msgs, release, err := ch.Subscribe(ctx)
    if err != nil {
        t.Fatalf("Subscribe returned error: %v", err)
    }
    defer release()

    if gotAuth != "Bearer access-token" {
        t.Fatalf("server saw Authorization %q", gotAuth)
    }

    channel := realtime.UserChannel(42)
    waitForSubscriber(t, hub, channel)

    _ = hub.Publish(ctx, channel, realtime.Message{
        Event:   realtime.EventCardAdded,
        Payload: realtime.CardAddedPayload{CardID: "04:A3:9C:1B"},
    })

    select {
    case msg := <-msgs:
        payload, ok := realtime.DecodeCardAdded(msg)
        if !ok {
            t.Fatalf("could not decode message: %+v", msg)
        }
        if payload.CardID != "04:A3:9C:1B" {
            t.Fatalf("unexpected card id: %q", payload.CardID)
        }
    case <-time.After(2 * time.Second):
        t.Fatal("no message arrived over the websocket")
    }
}

func TestWSChannelReleaseClosesStream(t *testing.T) {
    hub := realtime.NewHub()
    var gotAuth string
    srv := newWSServer(hub, 42, &gotAuth)
    defer srv.Close()

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    ch := &WSChannel{URL: wsURL(srv)}
    msgs, release, err := ch.Subscribe(ctx)
    if err != nil {
        t.Fatalf("Subscribe returned error: %v", err)
    }
    waitForSubscriber(t, hub, realtime.UserChannel(42))

    release()
    release() // idempotent

    select {
    case _, ok := <-msgs:
        if ok {
            t.Fatal("received a message after release")
        }
    case <-time.After(2 * time.Second):
        t.Fatal("stream not closed after release")
    }

    // The server-side subscription goes away with the connection.
    deadline := time.Now().Add(2 * time.Second)
    for time.Now().Before(deadline) {
        if hub.Count(realtime.UserChannel(42)) == 0 {
            return
        }
        time.Sleep(10 * time.Millisecond)
    }
    t.Fatalf("server subscription survived release: %d", hub.Count(realtime.UserChannel(42)))
}

func TestHubChannelReleaseStopsWatcher(t *testing.T) {
    // Releasing a subscription must also end its context watcher, even
    // when the context can never be cancelled.
    hub := realtime.NewHub()
    ch := &HubChannel{Hub: hub, UserID: 42}

    before := runtime.NumGoroutine()
    for i := 0; i < 25; i++ {
        _, release, err := ch.Subscribe(context.Background())
        if err != nil {
            t.Fatalf("Subscribe returned error: %v", err)
        }
        release()
    }

    deadline := time.Now().Add(2 * time.Second)
    for time.Now().Before(deadline) {
        if runtime.NumGoroutine() <= before+2 {
            return
        }
        time.Sleep(10 * time.Millisecond)
    }
    t.Fatalf("goroutines grew from %d to %d after release", before, runtime.NumGoroutine())
}
