package handler

import (
    "errors"  // for the invalid-context error
    "strconv" // parsing values stored as strings

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID placed into the echo
// context by the JWT middleware.  The claim may arrive as several
// numeric types depending on how the token was decoded, so a type
// switch covers the usual encodings.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}
