package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// CatalogChannel is the notification channel catalog imports publish on.
	// The payload is a service id or CatalogChangedAll.
	CatalogChannel = "catalog_changed"

	// CatalogChangedAll is the payload sent when rows shared by every service
	// (features, locations, add-ons) changed.
	CatalogChangedAll = "*"
)

// CatalogInvalidator is implemented by catalog.Cache.
type CatalogInvalidator interface {
	InvalidateService(serviceID string)
	InvalidateAll()
}

// CatalogListener invalidates a catalog cache whenever another process
// imports a catalog.
type CatalogListener struct {
	pool       *pgxpool.Pool
	cache      CatalogInvalidator
	logger     zerolog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewCatalogListener creates a listener on p.
func NewCatalogListener(p *pgxpool.Pool, cache CatalogInvalidator, logger zerolog.Logger) *CatalogListener {
	return &CatalogListener{
		pool:       p,
		cache:      cache,
		logger:     logger.With().Str("component", "catalog_listener").Logger(),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run listens until ctx is done, reconnecting after connection errors.
// Everything is invalidated after a reconnect, since notifications sent
// while disconnected are lost.
func (l *CatalogListener) Run(ctx context.Context) {
	backoff := l.minBackoff
	first := true
	for {
		err := l.listen(ctx, func() {
			if !first {
				l.cache.InvalidateAll()
			}
			first = false
			backoff = l.minBackoff
		})
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Catalog listener disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

func (l *CatalogListener) listen(ctx context.Context, connected func()) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	// a connection with LISTEN state must not go back to the pool
	pc := conn.Hijack()
	defer pc.Close(context.WithoutCancel(ctx))

	if _, err := pc.Exec(ctx, "LISTEN "+pgx.Identifier{CatalogChannel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	connected()
	l.logger.Info().Str("channel", CatalogChannel).Msg("Listening for catalog changes")

	for {
		n, err := pc.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		l.handle(n.Payload)
	}
}

func (l *CatalogListener) handle(payload string) {
	if payload == CatalogChangedAll || payload == "" {
		l.cache.InvalidateAll()
		return
	}
	l.cache.InvalidateService(payload)
}
