package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/modtap/card-link/internal/config"
    "github.com/modtap/card-link/internal/handler"    // import the handlers that implement business logic
    "github.com/modtap/card-link/internal/middleware" // import middleware for JWT authentication and rate limiting
    "github.com/modtap/card-link/internal/realtime"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterCardLink registers the card-link session endpoints, the realtime
// websocket, and the pairing QR route.  Everything lives under the /v1
// prefix behind JWT authentication; the rate limiter runs after the JWT
// middleware so that its per-user key sees the authenticated identity.
func RegisterCardLink(
    e *echo.Echo,
    links *handler.LinkCardHandler,
    pair *handler.PairHandler,
    hub *realtime.Hub,
    jwtSecret string,
    rlCfg config.RateLimitConfig,
    rdb *redis.Client,
) {
    auth := e.Group("/v1")
    // Apply the JWTAuth middleware to the protected group using the provided secret.
    auth.Use(middleware.JWTAuth(jwtSecret))
    // Token-bucket rate limiting keyed on ip, user and route.  With a nil
    // Redis client the middleware passes requests through untouched.
    auth.Use(middleware.NewTokenBucket(rlCfg, rdb))

    // Start or complete a card-link session for the authenticated user.
    auth.POST("/users/:id/link-card", links.LinkCard)
    // Read the user's current card binding (used to re-check after a push).
    auth.GET("/users/:id/card", links.GetCard)
    // Read the user's most recent pairing session.
    auth.GET("/users/:id/link-session", links.GetLinkSession)
    // Subscribe to the caller's realtime channel over a websocket.
    auth.GET("/ws", realtime.ServeWS(hub))
    // Render the pairing deep link as a scannable PNG.
    auth.GET("/pair/qr", pair.QR)
}
