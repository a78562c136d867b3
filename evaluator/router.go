package evaluator

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// ErrNoTarget is returned by acquire if no database target is available.
var ErrNoTarget = errors.New("no database target available")

/*
A router selects a database connection from the configured primary and
replica targets.

Replicas are picked round robin among the currently healthy ones, with
the primary as fallback of last resort. A replica whose connect fails is
marked unhealthy and skipped until the health cooldown has passed; the
cooldown is a passive timer checked on the next acquire, not an active
prober. The primary is never marked unhealthy: its transient failures
must surface to the caller.
*/
type router struct {
	primary        ConnectionSpec
	replicas       []ConnectionSpec
	connectTimeout time.Duration
	cooldown       time.Duration
	logger         *slog.Logger
	metrics        *metrics

	mu        sync.Mutex // guards cursor, unhealthy and dbs.
	cursor    int
	unhealthy map[string]time.Time // connection string -> time of last failure.
	dbs       map[string]*sql.DB   // one pool per connection string.

	now     func() time.Time                                         // clock injection for tests.
	connect func(context.Context, ConnectionSpec) (*sql.Conn, error) // dial injection for tests.
}

func newRouter(cfg *Config, logger *slog.Logger, metrics *metrics) *router {
	r := &router{
		primary:        cfg.Primary,
		replicas:       cfg.Replicas,
		connectTimeout: cfg.ConnectTimeout,
		cooldown:       cfg.HealthCooldown,
		logger:         logger,
		metrics:        metrics,
		unhealthy:      map[string]time.Time{},
		dbs:            map[string]*sql.DB{},
		now:            time.Now,
	}
	r.connect = r.dial
	return r
}

// acquire returns a connection together with the spec it was opened
// against. forcePrimary bypasses replica selection.
func (r *router) acquire(ctx context.Context, forcePrimary bool) (*sql.Conn, ConnectionSpec, error) {
	targets := r.selectTargets(forcePrimary)

	var lastErr error
	for _, spec := range targets {
		conn, err := r.connect(ctx, spec)
		if err == nil {
			return conn, spec, nil
		}
		lastErr = err
		if spec.ConnStr != r.primary.ConnStr {
			r.markUnhealthy(spec)
			r.metrics.addCounterValue(counterReplicaFailures, 1)
			r.logger.Warn("replica connect failed", "replica", spec.Label, "error", err)
		}
	}
	if lastErr == nil {
		lastErr = ErrNoTarget
	}
	return nil, ConnectionSpec{}, lastErr
}

// selectTargets builds the ordered attempt list: a round-robin pick of
// the healthy replicas followed by the primary, or the primary alone.
func (r *router) selectTargets(forcePrimary bool) []ConnectionSpec {
	if forcePrimary || len(r.replicas) == 0 {
		return []ConnectionSpec{r.primary}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	healthy := r.replicas[:0:0]
	for _, spec := range r.replicas {
		if r.isHealthyLocked(spec, now) {
			healthy = append(healthy, spec)
		}
	}
	if len(healthy) == 0 {
		return []ConnectionSpec{r.primary}
	}
	r.cursor = (r.cursor + 1) % len(healthy)
	return []ConnectionSpec{healthy[r.cursor], r.primary}
}

func (r *router) isHealthyLocked(spec ConnectionSpec, now time.Time) bool {
	failedAt, ok := r.unhealthy[spec.ConnStr]
	if !ok {
		return true
	}
	if now.Sub(failedAt) > r.cooldown {
		delete(r.unhealthy, spec.ConnStr) // cooldown passed, eligible again.
		return true
	}
	return false
}

func (r *router) markUnhealthy(spec ConnectionSpec) {
	if spec.ConnStr == r.primary.ConnStr {
		return
	}
	r.mu.Lock()
	r.unhealthy[spec.ConnStr] = r.now()
	r.mu.Unlock()
}

// health reports the current replica health by label.
func (r *router) health() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	health := make(map[string]bool, len(r.replicas))
	for _, spec := range r.replicas {
		health[spec.Label] = r.isHealthyLocked(spec, now)
	}
	return health
}

// dial opens a connection against spec under the connect timeout. Pools
// are keyed by connection string and created on first use; the driver
// connector keeps the connection string opaque.
func (r *router) dial(ctx context.Context, spec ConnectionSpec) (*sql.Conn, error) {
	db, err := r.pool(spec)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.connectTimeout)
	defer cancel()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (r *router) pool(spec ConnectionSpec) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.dbs[spec.ConnStr]; ok {
		return db, nil
	}
	connector, err := mssql.NewConnector(spec.ConnStr)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	r.dbs[spec.ConnStr] = db
	return db, nil
}

// close closes all pools.
func (r *router) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lastErr error
	for _, db := range r.dbs {
		if err := db.Close(); err != nil {
			lastErr = err
		}
	}
	clear(r.dbs)
	return lastErr
}
