package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/modtap/card-link/internal/pairing"
)

// pairQRSize is the rendered edge length in pixels of the served QR PNG.
const pairQRSize = 320

// PairHandler serves the scannable deep links that move the handshake
// onto a second device.
type PairHandler struct {
    BaseURL string // public origin of the web app, e.g. https://app.modtap.io
}

// NewPairHandler constructs a PairHandler for the given public base URL.
func NewPairHandler(baseURL string) *PairHandler {
    if baseURL == "" {
        panic("empty base URL passed to NewPairHandler")
    }
    return &PairHandler{BaseURL: baseURL}
}

// QR handles GET /v1/pair/qr.  It renders the pairing deep link as a PNG
// for the desktop to display.  The default target is the profile page;
// ?target=register with first_name/last_name renders the registration
// variant used by staff linking a card for a new attendee.
func (h *PairHandler) QR(c echo.Context) error {
    var (
        deepLink string
        err      error
    )
    if c.QueryParam("target") == "register" {
        deepLink, err = pairing.RegistrationDeepLink(h.BaseURL, c.QueryParam("first_name"), c.QueryParam("last_name"))
    } else {
        deepLink, err = pairing.ProfileDeepLink(h.BaseURL)
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build deep link"})
    }

    png, err := pairing.QRCodePNG(deepLink, pairQRSize)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render QR code"})
    }
    c.Response().Header().Set("X-Deep-Link", deepLink)
    return c.Blob(http.StatusOK, "image/png", png)
}
