package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Provider hands each unit of work a short-lived session on the shared pool.
// Sessions are bound to the caller's context and capped by the query timeout;
// the returned release func must run on every exit path.
type Provider struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewProvider wraps db. A zero timeout leaves cancellation to the caller's context.
func NewProvider(db *gorm.DB, timeout time.Duration) *Provider {
	return &Provider{db: db, timeout: timeout}
}

// Session acquires a session for one operation.
func (p *Provider) Session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	var cancel context.CancelFunc
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	return p.db.WithContext(ctx), cancel
}

// Ping checks that the database is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool.
func (p *Provider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
