package pairing

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"
)

// StartResponse mirrors the server's start-session reply.
type StartResponse struct {
    Status    string    `json:"status"`
    ExpiresAt time.Time `json:"expires_at"`
}

// CompleteResponse mirrors the server's complete-session reply. Message is
// shown to the user verbatim on rejection.
type CompleteResponse struct {
    Success bool   `json:"success"`
    Message string `json:"message,omitempty"`
    CardID  string `json:"card_id,omitempty"`
}

// SessionClient is the card-link session endpoint as seen by the two
// roles. Errors are transport-level only (wrapped ErrNetwork); business
// rejections arrive inside CompleteResponse so the state machines can make
// their Error transition explicitly.
type SessionClient interface {
    Start(ctx context.Context, userID uint64) (StartResponse, error)
    Complete(ctx context.Context, userID uint64, cardID string) (CompleteResponse, error)
}

// HTTPSessionClient talks to POST /v1/users/{id}/link-card with a Bearer
// token, matching the server's route surface.
type HTTPSessionClient struct {
    BaseURL string       // e.g. https://api.modtap.io
    Token   string       // access token of the authenticated user
    Client  *http.Client // optional; defaults to a 15s-timeout client
}

func (c *HTTPSessionClient) httpClient() *http.Client {
    if c.Client != nil {
        return c.Client
    }
    return &http.Client{Timeout: 15 * time.Second}
}

// Start signals pairing intent for the user.
func (c *HTTPSessionClient) Start(ctx context.Context, userID uint64) (StartResponse, error) {
    status, body, err := c.post(ctx, userID, map[string]string{"action": "start"})
    if err != nil {
        return StartResponse{}, err
    }
    if status < 200 || status >= 300 {
        if msg := errorField(body); msg != "" {
            return StartResponse{}, fmt.Errorf("start session: %s", msg)
        }
        return StartResponse{}, fmt.Errorf("%w: unreadable response (status %d)", ErrNetwork, status)
    }
    var out StartResponse
    if err := json.Unmarshal(body, &out); err != nil {
        return StartResponse{}, fmt.Errorf("%w: unreadable response (status %d)", ErrNetwork, status)
    }
    return out, nil
}

// Complete submits a normalized card id for the user. Any reply that
// carries a server-supplied reason is returned as a CompleteResponse with
// Success=false so the message reaches the user verbatim; only replies
// with no usable body become errors.
func (c *HTTPSessionClient) Complete(ctx context.Context, userID uint64, cardID string) (CompleteResponse, error) {
    status, body, err := c.post(ctx, userID, map[string]string{"cardId": cardID})
    if err != nil {
        return CompleteResponse{}, err
    }
    if status >= 200 && status < 300 {
        var out CompleteResponse
        if err := json.Unmarshal(body, &out); err != nil {
            return CompleteResponse{}, fmt.Errorf("%w: unreadable response (status %d)", ErrNetwork, status)
        }
        return out, nil
    }
    // 401/403/404 replies carry {"error": "..."}; surface that reason
    // instead of a generic failure.
    if msg := errorField(body); msg != "" {
        return CompleteResponse{Success: false, Message: msg}, nil
    }
    return CompleteResponse{}, fmt.Errorf("%w: unreadable response (status %d)", ErrNetwork, status)
}

// errorField extracts the message of the server's error reply shape.
func errorField(body []byte) string {
    var reply struct {
        Error string `json:"error"`
    }
    if err := json.Unmarshal(body, &reply); err != nil {
        return ""
    }
    return reply.Error
}

func (c *HTTPSessionClient) post(ctx context.Context, userID uint64, body any) (int, []byte, error) {
    payload, err := json.Marshal(body)
    if err != nil {
        return 0, nil, err
    }
    url := fmt.Sprintf("%s/v1/users/%d/link-card", c.BaseURL, userID)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
    if err != nil {
        return 0, nil, err
    }
    req.Header.Set("Content-Type", "application/json")
    if c.Token != "" {
        req.Header.Set("Authorization", "Bearer "+c.Token)
    }
    resp, err := c.httpClient().Do(req)
    if err != nil {
        return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
    }
    defer func() { _ = resp.Body.Close() }()

    raw, err := io.ReadAll(resp.Body)
    if err != nil {
        return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
    }
    return resp.StatusCode, raw, nil
}
