package pairing

import (
    "context"
    "log"
    "sync"

    "github.com/modtap/card-link/internal/realtime"
)

// InitiatorState enumerates the desktop role's states. There is no failed
// terminal: timeouts are imposed from outside via context cancellation, and
// a cancelled initiator simply tears down from Listening.
type InitiatorState int

const (
    StateIdle InitiatorState = iota
    StateListening
    StateSuccess
)

func (s InitiatorState) String() string {
    switch s {
    case StateIdle:
        return "idle"
    case StateListening:
        return "listening"
    case StateSuccess:
        return "success"
    }
    return "unknown"
}

// qrSize is the rendered edge length in pixels of the pairing QR code.
const qrSize = 320

// Initiator drives the desktop half of the handshake. Construct with
// NewInitiator, call Mount to open the channel and signal intent, render
// DeepLink/QRCode to the user, then Wait for the terminal card_added
// message. Unmount releases the channel subscription on every exit path.
type Initiator struct {
    userID   uint64
    channel  Channel
    sessions SessionClient
    baseURL  string

    mu         sync.Mutex
    state      InitiatorState
    deepLink   string
    qrPNG      []byte
    linkedCard string

    msgs    <-chan realtime.Message
    release func()
    once    sync.Once
}

// NewInitiator validates the inputs and returns an Idle initiator. A zero
// user id is the NotAuthenticated condition: no session may be started
// without an identity to scope it.
func NewInitiator(userID uint64, channel Channel, sessions SessionClient, baseURL string) (*Initiator, error) {
    if userID == 0 {
        return nil, ErrNotAuthenticated
    }
    return &Initiator{
        userID:   userID,
        channel:  channel,
        sessions: sessions,
        baseURL:  baseURL,
        state:    StateIdle,
    }, nil
}

// Mount performs the three mount-time side effects: subscribe to the
// user's channel, signal pairing intent to the session service, and build
// the scannable deep link. The subscription must succeed; a failed start
// call is tolerated, because the channel and the session store are
// independent failure domains: a listening desktop still receives the
// push if the mobile side creates the link on its own.
func (i *Initiator) Mount(ctx context.Context) error {
    msgs, release, err := i.channel.Subscribe(ctx)
    if err != nil {
        return err
    }
    i.msgs = msgs
    i.release = release

    if _, err := i.sessions.Start(ctx, i.userID); err != nil {
        // Degraded but still listening.
        log.Printf("pairing: start session failed for user %d, listening anyway: %v", i.userID, err)
    }

    deepLink, err := ProfileDeepLink(i.baseURL)
    if err != nil {
        i.Unmount()
        return err
    }
    qr, err := QRCodePNG(deepLink, qrSize)
    if err != nil {
        i.Unmount()
        return err
    }

    i.mu.Lock()
    i.deepLink = deepLink
    i.qrPNG = qr
    i.state = StateListening
    i.mu.Unlock()
    return nil
}

// Wait blocks until the card_added message arrives, the context is
// cancelled, or the channel closes. On the message it transitions to
// Success and returns the linked card identifier for display; teardown of
// the subscription is still the caller's Unmount (typically deferred, so
// it runs after any display delay the UI wants).
func (i *Initiator) Wait(ctx context.Context) (string, error) {
    for {
        select {
        case <-ctx.Done():
            return "", ctx.Err()
        case msg, ok := <-i.msgs:
            if !ok {
                return "", ErrNetwork
            }
            payload, ok := realtime.DecodeCardAdded(msg)
            if !ok {
                continue
            }
            i.mu.Lock()
            i.state = StateSuccess
            i.linkedCard = payload.CardID
            i.mu.Unlock()
            return payload.CardID, nil
        }
    }
}

// Unmount closes the channel subscription. It is idempotent and safe to
// call in any state; after it returns no further callbacks fire.
func (i *Initiator) Unmount() {
    i.once.Do(func() {
        if i.release != nil {
            i.release()
        }
    })
}

// State reports the current state.
func (i *Initiator) State() InitiatorState {
    i.mu.Lock()
    defer i.mu.Unlock()
    return i.state
}

// DeepLink returns the URL encoded in the QR code. Empty before Mount.
func (i *Initiator) DeepLink() string {
    i.mu.Lock()
    defer i.mu.Unlock()
    return i.deepLink
}

// QRCode returns the rendered PNG of the deep link. Nil before Mount.
func (i *Initiator) QRCode() []byte {
    i.mu.Lock()
    defer i.mu.Unlock()
    return i.qrPNG
}

// LinkedCardID returns the card identifier received on success, for
// display. Empty until the Success transition.
func (i *Initiator) LinkedCardID() string {
    i.mu.Lock()
    defer i.mu.Unlock()
    return i.linkedCard
}
