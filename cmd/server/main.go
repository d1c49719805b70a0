package main // Entry point package

import (
    "context"
    "log"  // Logging library
    "time" // Session TTL arithmetic

    "github.com/joho/godotenv" // Loads .env files in development
    "github.com/labstack/echo/v4"

    "github.com/modtap/card-link/internal/config"
    "github.com/modtap/card-link/internal/database"
    "github.com/modtap/card-link/internal/handler"
    "github.com/modtap/card-link/internal/link"
    "github.com/modtap/card-link/internal/queue"
    "github.com/modtap/card-link/internal/realtime"
    "github.com/modtap/card-link/internal/repository"
    "github.com/modtap/card-link/internal/router"
    queue_publisher "github.com/modtap/card-link/internal/service"
)

func main() {
    // Load a local .env if present; in production the variables come from
    // the environment itself.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Redis backs cross-instance realtime fanout and the rate limiter.
    // A nil client degrades both to single-instance behavior.
    rdb := config.NewRedisClient()

    hub := realtime.NewHub()
    var publisher realtime.Publisher = hub
    if rdb != nil {
        bridge := realtime.NewRedisBridge(rdb, hub)
        go bridge.Run(context.Background())
        publisher = bridge
    }

    userRepo := repository.NewUserRepo(db)
    linkRepo := repository.NewLinkRepo(db)

    // Audit publishing runs off the request path; a broker outage must
    // never fail or slow a link.
    audit := func(ctx context.Context, userID uint64, cardID string, linkedAt time.Time) {
        go func() {
            evt := queue.CardLinkedEvent{
                UserID:   userID,
                CardID:   cardID,
                LinkedAt: linkedAt.UTC().Format(time.RFC3339),
            }
            if err := queue_publisher.PublishCardLinked(context.Background(), evt); err != nil {
                log.Printf("audit publish failed for user %d: %v", userID, err)
            }
        }()
    }

    ttl := time.Duration(cfg.SessionTTLMin) * time.Minute
    linkSvc := link.NewService(linkRepo, publisher, ttl, audit)

    // Consume card.linked events into the audit log.
    go func() {
        if err := queue.StartCardLinkedConsumer(); err != nil {
            log.Printf("card.linked consumer stopped: %v", err)
        }
    }()

    e := echo.New() // Create Echo instance
    router.RegisterRoutes(e)
    router.RegisterCardLink(
        e,
        handler.NewLinkCardHandler(userRepo, linkSvc, linkRepo),
        handler.NewPairHandler(cfg.PublicBaseURL),
        hub,
        cfg.JWTSecret,
        config.LoadRateLimitConfig(),
        rdb,
    )

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
