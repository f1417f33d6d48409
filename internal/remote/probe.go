package remote

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolProbe reports reachability of the central store by pinging the pool.
type PoolProbe struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPoolProbe(pool *pgxpool.Pool) *PoolProbe {
	return &PoolProbe{pool: pool, timeout: 2 * time.Second}
}

func (p *PoolProbe) Online(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.pool.Ping(pingCtx) == nil
}
