package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/modtap/card-link/internal/link"
    "github.com/modtap/card-link/internal/repository"
)

// LinkCardHandler exposes the card-link session endpoints.  All methods
// assume JWT authentication has already run: the authenticated user ID
// is read from the echo context, and the :id path parameter must match
// it.  Acting on another user's binding is always forbidden.
type LinkCardHandler struct {
    Users    *repository.UserRepo // card binding reads
    Links    *link.Service        // session start/complete semantics
    Sessions *repository.LinkRepo // session status reads
}

// NewLinkCardHandler constructs a LinkCardHandler.  All dependencies
// must be non-nil.
func NewLinkCardHandler(users *repository.UserRepo, links *link.Service, sessions *repository.LinkRepo) *LinkCardHandler {
    if users == nil || links == nil || sessions == nil {
        panic("nil dependency passed to NewLinkCardHandler")
    }
    return &LinkCardHandler{Users: users, Links: links, Sessions: sessions}
}

// linkCardRequest is the body of POST /v1/users/:id/link-card.  The two
// halves of the handshake share one route: {"action":"start"} opens a
// pairing session, and {"cardId":"..."} completes one.
type linkCardRequest struct {
    Action string `json:"action,omitempty"`
    CardID string `json:"cardId,omitempty"`
}

// LinkCard handles POST /v1/users/:id/link-card.  Starting a session
// returns 200 with {"status","expires_at"}.  Completing returns 200
// with {"success","message","card_id"}; rejections (card owned by
// another user, a different card already linked) are business replies,
// not transport errors, so they are also 200 with success=false.
func (h *LinkCardHandler) LinkCard(c echo.Context) error {
    userID, err := h.authorizedUserID(c)
    if err != nil {
        return err
    }

    var body linkCardRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    ctx := c.Request().Context()
    switch {
    case strings.EqualFold(body.Action, "start"):
        res, err := h.Links.Start(ctx, userID)
        if err != nil {
            if errors.Is(err, repository.ErrUserNotFound) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        return c.JSON(http.StatusOK, echo.Map{
            "status":     res.Status,
            "expires_at": res.ExpiresAt,
        })
    case body.CardID != "":
        res, err := h.Links.Complete(ctx, userID, body.CardID)
        if err != nil {
            if errors.Is(err, repository.ErrUserNotFound) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        return c.JSON(http.StatusOK, echo.Map{
            "success": res.Success,
            "message": res.Message,
            "card_id": res.CardID,
        })
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "action or card_id is required"})
    }
}

// GetCard handles GET /v1/users/:id/card.  It returns the user's
// current card binding, or null when no card is linked.  Clients use it
// to re-check the binding after a pairing push arrives.
func (h *LinkCardHandler) GetCard(c echo.Context) error {
    userID, err := h.authorizedUserID(c)
    if err != nil {
        return err
    }

    user, err := h.Users.GetByID(c.Request().Context(), userID)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if user.CardID == "" {
        return c.JSON(http.StatusOK, echo.Map{"card_id": nil})
    }
    return c.JSON(http.StatusOK, echo.Map{"card_id": user.CardID})
}

// GetLinkSession handles GET /v1/users/:id/link-session.  It returns the
// user's most recent pairing session so a desktop can show the remaining
// pairing window; overdue sessions are reported as EXPIRED.
func (h *LinkCardHandler) GetLinkSession(c echo.Context) error {
    userID, err := h.authorizedUserID(c)
    if err != nil {
        return err
    }

    sess, err := h.Sessions.GetSession(c.Request().Context(), userID)
    if err != nil {
        if errors.Is(err, repository.ErrNoSession) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no pairing session"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "status":     sess.Status,
        "card_id":    sess.CardID,
        "expires_at": sess.ExpiresAt,
    })
}

// authorizedUserID parses the :id path parameter and checks it against
// the authenticated identity.  A mismatch is 403: tokens never grant
// access to another user's card binding.
func (h *LinkCardHandler) authorizedUserID(c echo.Context) (uint64, error) {
    authedID, err := getUserID(c)
    if err != nil {
        return 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    pathID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || pathID == 0 {
        return 0, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if pathID != authedID {
        return 0, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return pathID, nil
}
