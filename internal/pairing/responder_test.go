package pairing

import (
    "context"
    "errors"
    "testing"
)

// fakeSessions scripts the session endpoint and records submissions.
type fakeSessions struct {
    startResp    StartResponse
    startErr     error
    completeResp CompleteResponse
    completeErr  error
    startCalls   int
    completed    []string
}

func (f *fakeSessions) Start(context.Context, uint64) (StartResponse, error) {
    f.startCalls++
    return f.startResp, f.startErr
}

func (f *fakeSessions) Complete(_ context.Context, _ uint64, cardID string) (CompleteResponse, error) {
    f.completed = append(f.completed, cardID)
    if f.completeErr != nil {
        return CompleteResponse{}, f.completeErr
    }
    return f.completeResp, nil
}

// fakeScanner scripts the hardware layer.
type fakeScanner struct {
    supported bool
    serial    string
    err       error
}

func (f *fakeScanner) Supported() bool { return f.supported }

func (f *fakeScanner) Read(context.Context) (string, error) {
    if f.err != nil {
        return "", f.err
    }
    return f.serial, nil
}

func TestResponderHardwareScanHappyPath(t *testing.T) {
    sessions := &fakeSessions{completeResp: CompleteResponse{Success: true}}
    r := NewResponder(42, sessions, &fakeScanner{supported: true, serial: "04a39c1b"})

    if err := r.BeginHardwareScan(context.Background()); err != nil {
        t.Fatalf("BeginHardwareScan returned error: %v", err)
    }
    if r.State() != RespSuccess {
        t.Fatalf("expected success state, got %v", r.State())
    }
    if r.CardID() != "04:A3:9C:1B" {
        t.Fatalf("expected normalized card for display, got %q", r.CardID())
    }
    if len(sessions.completed) != 1 || sessions.completed[0] != "04:A3:9C:1B" {
        t.Fatalf("expected one normalized submission, got %v", sessions.completed)
    }
}

func TestResponderCapabilityErrorsAreDistinct(t *testing.T) {
    ctx := context.Background()

    // No reader at all: falls back to manual entry.
    r := NewResponder(42, &fakeSessions{}, nil)
    if err := r.BeginHardwareScan(ctx); !errors.Is(err, ErrCapabilityUnavailable) {
        t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
    }
    if r.ErrorKind() != ErrorNotSupported {
        t.Fatalf("expected ErrorNotSupported, got %v", r.ErrorKind())
    }

    // Reader present but the user declined the permission prompt.
    r = NewResponder(42, &fakeSessions{}, &fakeScanner{supported: true, err: ErrPermissionDenied})
    if err := r.BeginHardwareScan(ctx); !errors.Is(err, ErrPermissionDenied) {
        t.Fatalf("expected ErrPermissionDenied, got %v", err)
    }
    if r.ErrorKind() != ErrorPermissionDenied {
        t.Fatalf("expected ErrorPermissionDenied, got %v", r.ErrorKind())
    }
    if r.ErrorMessage() == "" {
        t.Fatal("expected a user-visible message")
    }
}

func TestResponderManualEntryFallback(t *testing.T) {
    // A device without a reader still links through Submit.
    sessions := &fakeSessions{completeResp: CompleteResponse{Success: true}}
    r := NewResponder(42, sessions, nil)

    if err := r.Submit(context.Background(), "04-A3-9C-1B"); err != nil {
        t.Fatalf("Submit returned error: %v", err)
    }
    if r.State() != RespSuccess {
        t.Fatalf("expected success state, got %v", r.State())
    }
}

func TestResponderSurfacesServerMessageVerbatim(t *testing.T) {
    const serverMsg = "This card is already assigned to a user."
    sessions := &fakeSessions{completeResp: CompleteResponse{Success: false, Message: serverMsg}}
    r := NewResponder(7, sessions, nil)

    if err := r.Submit(context.Background(), "aabbccdd"); err != nil {
        t.Fatalf("Submit returned error: %v", err)
    }
    if r.State() != RespError {
        t.Fatalf("expected error state, got %v", r.State())
    }
    if r.ErrorKind() != ErrorRejected {
        t.Fatalf("expected ErrorRejected, got %v", r.ErrorKind())
    }
    if r.ErrorMessage() != serverMsg {
        t.Fatalf("message not surfaced verbatim: %q", r.ErrorMessage())
    }
}

func TestResponderNetworkErrorNoAutoRetry(t *testing.T) {
    sessions := &fakeSessions{completeErr: ErrNetwork}
    r := NewResponder(42, sessions, nil)

    if err := r.Submit(context.Background(), "04a39c1b"); !errors.Is(err, ErrNetwork) {
        t.Fatalf("expected ErrNetwork, got %v", err)
    }
    if r.ErrorKind() != ErrorNetwork {
        t.Fatalf("expected ErrorNetwork, got %v", r.ErrorKind())
    }
    // Exactly one submission: nothing retries on the user's behalf.
    if len(sessions.completed) != 1 {
        t.Fatalf("expected a single submission attempt, got %d", len(sessions.completed))
    }
}

func TestResponderRetryReturnsToIdle(t *testing.T) {
    sessions := &fakeSessions{completeResp: CompleteResponse{Success: false, Message: "Failed to link card."}}
    r := NewResponder(42, sessions, nil)

    if err := r.Submit(context.Background(), "04a39c1b"); err != nil {
        t.Fatalf("Submit returned error: %v", err)
    }
    if r.State() != RespError {
        t.Fatalf("expected error state, got %v", r.State())
    }

    r.Retry()
    if r.State() != RespIdle {
        t.Fatalf("expected idle after retry, got %v", r.State())
    }
    if r.ErrorKind() != ErrorNone || r.ErrorMessage() != "" {
        t.Fatal("retry must clear the error")
    }

    // Retry outside the error state is a no-op.
    sessions.completeResp = CompleteResponse{Success: true}
    if err := r.Submit(context.Background(), "04a39c1b"); err != nil {
        t.Fatalf("Submit returned error: %v", err)
    }
    r.Retry()
    if r.State() != RespSuccess {
        t.Fatalf("retry must not leave success, got %v", r.State())
    }
}

func TestResponderPreconditions(t *testing.T) {
    ctx := context.Background()

    r := NewResponder(0, &fakeSessions{}, nil)
    if err := r.Submit(ctx, "04a39c1b"); !errors.Is(err, ErrNotAuthenticated) {
        t.Fatalf("expected ErrNotAuthenticated, got %v", err)
    }
    if r.ErrorKind() != ErrorNotAuthenticated {
        t.Fatalf("expected ErrorNotAuthenticated, got %v", r.ErrorKind())
    }

    r = NewResponder(42, &fakeSessions{}, nil)
    if err := r.Submit(ctx, ""); !errors.Is(err, ErrEmptyCardID) {
        t.Fatalf("expected ErrEmptyCardID, got %v", err)
    }
}
