// Package leaselock provides a PostgreSQL-backed expiring lock. The worker
// uses it to serialize index builds across replicas.
package leaselock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client acquires leases against the index_locks table.
type Client struct {
	db dbConn
}

// Options tune lease acquisition. Zero values get sane defaults.
type Options struct {
	// TTL is how long the lease lives without renewal. Defaults to 5m.
	TTL time.Duration
	// RenewEvery is the renewal interval. Defaults to TTL/2.
	RenewEvery time.Duration
	// Wait retries acquisition instead of failing with ErrBusy.
	Wait bool
	// WaitInterval is the retry interval when waiting. Defaults to 250ms.
	WaitInterval time.Duration
}

// Lease is a held lock. Context is cancelled if the lease is lost, so work
// running under it stops instead of racing the next holder.
type Lease struct {
	Key     string
	Token   string
	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a lease client on the given pool.
func New(pool *pgxpool.Pool) *Client {
	return &Client{db: pool}
}

// WithLease acquires the lock, runs fn under the lease context, and
// releases the lock when fn returns.
func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	return fn(lease.Context)
}

// Acquire takes the lock, starting a background renewal loop.
func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	ttlMs := opts.TTL.Milliseconds()

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	for {
		var returnedKey string
		err := c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&returnedKey)
		if err == nil && returnedKey != "" {
			break
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleep(ctx, opts.WaitInterval); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:     key,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}
	go l.renewLoop(opts.RenewEvery, ttlMs)

	return l, nil
}

// Release stops renewal and drops the lock row.
func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Key, l.Token)
	return err
}

func (l *Lease) renewLoop(every time.Duration, ttlMs int64) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttlMs int64) error {
	renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
	defer cancel()

	var returnedKey string
	err := l.client.db.QueryRow(renewCtx, renewSQL, l.Key, l.Token, ttlMs).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLost
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO index_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE index_locks.expires_at < now()
   OR index_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE index_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM index_locks
WHERE lock_key = $1 AND locked_by = $2;
`
