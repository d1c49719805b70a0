package pairing_test

import (
    "context"
    "errors"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/modtap/card-link/internal/handler"
    "github.com/modtap/card-link/internal/link"
    "github.com/modtap/card-link/internal/model"
    "github.com/modtap/card-link/internal/pairing"
    "github.com/modtap/card-link/internal/realtime"
    "github.com/modtap/card-link/internal/repository"
)

// wireStore backs the real handler with scripted outcomes so the tests
// exercise the full HTTP round trip without a database.
type wireStore struct {
    mu      sync.Mutex
    start   model.StartStatus
    outcome model.LinkOutcome
    cards   []string
}

func (s *wireStore) StartSession(_ context.Context, _ uint64, _ string, _ time.Time) (model.StartStatus, error) {
    return s.start, nil
}

func (s *wireStore) CompleteSession(_ context.Context, _ uint64, cardID string) (model.LinkOutcome, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.cards = append(s.cards, cardID)
    return s.outcome, nil
}

// newLinkServer serves the real LinkCard handler behind a stub auth
// middleware that fixes the authenticated identity.
func newLinkServer(store *wireStore, authedID uint64) *httptest.Server {
    e := echo.New()
    h := handler.NewLinkCardHandler(
        repository.NewUserRepo(nil),
        link.NewService(store, realtime.NewHub(), 5*time.Minute, nil),
        repository.NewLinkRepo(nil),
    )
    e.POST("/v1/users/:id/link-card", h.LinkCard, func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set("user_id", authedID)
            return next(c)
        }
    })
    return httptest.NewServer(e)
}

func TestHTTPSessionClientStartAndComplete(t *testing.T) {
    store := &wireStore{start: model.StartStarted, outcome: model.LinkedNew}
    srv := newLinkServer(store, 42)
    defer srv.Close()

    client := &pairing.HTTPSessionClient{BaseURL: srv.URL, Token: "access-token"}
    ctx := context.Background()

    start, err := client.Start(ctx, 42)
    if err != nil {
        t.Fatalf("Start returned error: %v", err)
    }
    if start.Status != string(model.StartStarted) {
        t.Fatalf("unexpected start status: %q", start.Status)
    }
    if !start.ExpiresAt.After(time.Now().UTC()) {
        t.Fatalf("expiry not in the future: %v", start.ExpiresAt)
    }

    res, err := client.Complete(ctx, 42, "04a39c1b")
    if err != nil {
        t.Fatalf("Complete returned error: %v", err)
    }
    if !res.Success {
        t.Fatalf("expected success, got message %q", res.Message)
    }
    if res.CardID != "04:A3:9C:1B" {
        t.Fatalf("card id not normalized: %q", res.CardID)
    }
    if len(store.cards) != 1 || store.cards[0] != "04:A3:9C:1B" {
        t.Fatalf("store saw %v", store.cards)
    }
}

func TestHTTPSessionClientConflictMessage(t *testing.T) {
    store := &wireStore{outcome: model.ConflictOtherUser}
    srv := newLinkServer(store, 42)
    defer srv.Close()

    client := &pairing.HTTPSessionClient{BaseURL: srv.URL}
    res, err := client.Complete(context.Background(), 42, "04:A3:9C:1B")
    if err != nil {
        t.Fatalf("Complete returned error: %v", err)
    }
    if res.Success {
        t.Fatal("conflict reported as success")
    }
    if res.Message != "This card is already assigned to a user." {
        t.Fatalf("server message not preserved: %q", res.Message)
    }
}

func TestHTTPSessionClientSurfacesErrorReply(t *testing.T) {
    // The token belongs to user 7, the request targets user 42. The
    // server's 403 reason must reach the caller, not a blank reply.
    store := &wireStore{outcome: model.LinkedNew}
    srv := newLinkServer(store, 7)
    defer srv.Close()

    client := &pairing.HTTPSessionClient{BaseURL: srv.URL}
    res, err := client.Complete(context.Background(), 42, "04:A3:9C:1B")
    if err != nil {
        t.Fatalf("Complete returned error: %v", err)
    }
    if res.Success {
        t.Fatal("rejected request reported as success")
    }
    if res.Message != "forbidden" {
        t.Fatalf("server reason not surfaced: %q", res.Message)
    }
    if len(store.cards) != 0 {
        t.Fatalf("store reached despite rejection: %v", store.cards)
    }

    if _, err := client.Start(context.Background(), 42); err == nil || !strings.Contains(err.Error(), "forbidden") {
        t.Fatalf("Start did not carry the server reason: %v", err)
    }
}

func TestHTTPSessionClientNetworkError(t *testing.T) {
    srv := httptest.NewServer(echo.New())
    srv.Close()

    client := &pairing.HTTPSessionClient{BaseURL: srv.URL}
    if _, err := client.Complete(context.Background(), 42, "04:A3:9C:1B"); !errors.Is(err, pairing.ErrNetwork) {
        t.Fatalf("expected ErrNetwork, got %v", err)
    }
}
