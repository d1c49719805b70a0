package pairing

import (
    "context"
    "errors"
    "sync"

    "github.com/modtap/card-link/internal/cardid"
)

// ResponderState enumerates the mobile role's states. Error is recoverable:
// Retry returns the machine to Idle for another attempt.
type ResponderState int

const (
    RespIdle ResponderState = iota
    RespScanning
    RespProcessing
    RespSuccess
    RespError
)

func (s ResponderState) String() string {
    switch s {
    case RespIdle:
        return "idle"
    case RespScanning:
        return "scanning"
    case RespProcessing:
        return "processing"
    case RespSuccess:
        return "success"
    case RespError:
        return "error"
    }
    return "unknown"
}

// ErrorKind classifies the Error state so the UI can choose the right
// affordance: a login prompt, a manual-entry fallback, a retry button, or
// a terminal "use a different card" notice.
type ErrorKind int

const (
    ErrorNone ErrorKind = iota
    ErrorNotAuthenticated
    ErrorNotSupported
    ErrorPermissionDenied
    ErrorNetwork
    ErrorRejected // business-rule rejection; message comes from the server
)

// Responder drives the mobile half of the handshake: read (or type) a
// serial, normalize it, submit it, and surface the outcome. Submissions
// are never retried automatically; a failed attempt waits for the user.
type Responder struct {
    userID   uint64
    sessions SessionClient
    scanner  Scanner // nil when the device has no reader integration

    mu      sync.Mutex
    state   ResponderState
    errKind ErrorKind
    errMsg  string
    cardID  string // normalized serial of the last attempt, for display
}

// NewResponder returns an Idle responder. scanner may be nil; submissions
// then come exclusively through Submit (manual entry).
func NewResponder(userID uint64, sessions SessionClient, scanner Scanner) *Responder {
    return &Responder{
        userID:   userID,
        sessions: sessions,
        scanner:  scanner,
        state:    RespIdle,
    }
}

// BeginHardwareScan attempts a hardware read and, on success, submits the
// serial. The two capability failures are distinct user-visible errors:
// "not supported" offers manual entry, "permission denied" offers a
// re-prompt. The returned error mirrors the entered Error state so callers
// can branch without re-reading the machine.
func (r *Responder) BeginHardwareScan(ctx context.Context) error {
    if r.userID == 0 {
        r.toError(ErrorNotAuthenticated, "User not identified. Please login.")
        return ErrNotAuthenticated
    }
    if r.scanner == nil || !r.scanner.Supported() {
        r.toError(ErrorNotSupported, "NFC not supported on this device.")
        return ErrCapabilityUnavailable
    }

    r.setState(RespScanning)
    raw, err := r.scanner.Read(ctx)
    if err != nil {
        if errors.Is(err, ErrPermissionDenied) {
            r.toError(ErrorPermissionDenied, "NFC permission denied.")
            return ErrPermissionDenied
        }
        r.toError(ErrorNotSupported, "Could not read card: "+err.Error())
        return err
    }
    return r.Submit(ctx, raw)
}

// Submit normalizes rawCardID and posts it to the session service. It is
// used both by the hardware path and directly for manual entry. On a
// business rejection the server's message is surfaced verbatim.
func (r *Responder) Submit(ctx context.Context, rawCardID string) error {
    if r.userID == 0 {
        r.toError(ErrorNotAuthenticated, "User not identified. Please login.")
        return ErrNotAuthenticated
    }
    if rawCardID == "" {
        r.toError(ErrorRejected, "Card id is required.")
        return ErrEmptyCardID
    }

    normalized := cardid.Normalize(rawCardID)
    r.mu.Lock()
    r.state = RespProcessing
    r.cardID = normalized
    r.mu.Unlock()

    resp, err := r.sessions.Complete(ctx, r.userID, normalized)
    if err != nil {
        r.toError(ErrorNetwork, "Network error. Please try again.")
        return err
    }
    if !resp.Success {
        msg := resp.Message
        if msg == "" {
            msg = "Failed to link card."
        }
        r.toError(ErrorRejected, msg)
        return nil
    }

    r.setState(RespSuccess)
    return nil
}

// Retry acknowledges an Error state and returns to Idle so the user can
// attempt another scan or entry. It is a no-op in any other state.
func (r *Responder) Retry() {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.state != RespError {
        return
    }
    r.state = RespIdle
    r.errKind = ErrorNone
    r.errMsg = ""
}

// State reports the current state.
func (r *Responder) State() ResponderState {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.state
}

// ErrorKind reports the classification of the current Error state, or
// ErrorNone outside it.
func (r *Responder) ErrorKind() ErrorKind {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.errKind
}

// ErrorMessage returns the human-readable message for display.
func (r *Responder) ErrorMessage() string {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.errMsg
}

// CardID returns the normalized serial of the last submission attempt.
func (r *Responder) CardID() string {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.cardID
}

func (r *Responder) setState(s ResponderState) {
    r.mu.Lock()
    r.state = s
    r.mu.Unlock()
}

func (r *Responder) toError(kind ErrorKind, msg string) {
    r.mu.Lock()
    r.state = RespError
    r.errKind = kind
    r.errMsg = msg
    r.mu.Unlock()
}
