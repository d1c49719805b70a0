package pairing

import "context"

// Scanner abstracts the hardware NFC capability of the responder's device.
// Not every phone exposes a reader, so availability is a runtime question,
// not a compile-time one: when Supported reports false the UI offers
// manual entry instead.
type Scanner interface {
    // Supported reports whether hardware scanning can be attempted at all.
    Supported() bool

    // Read blocks until a card is presented and returns its raw serial.
    // It returns ErrPermissionDenied (possibly wrapped) when the user
    // declines the platform's permission prompt, and respects ctx
    // cancellation.
    Read(ctx context.Context) (string, error)
}
