package pg

import (
	"context"
	"fmt"
	"maxbot/app/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ do.Shutdownable = (*Client)(nil)

// Client wraps the shared pgx pool. Pool is nil when Postgres is not
// configured; callers check Enabled and degrade to the file backends.
type Client struct {
	Pool *pgxpool.Pool
}

func New(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	if !cfg.DB.Enabled() {
		return &Client{}, nil
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s",
		cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Database)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Errorf("failed to create pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Errorf("failed to ping postgres: %w", err)
	}

	return &Client{Pool: pool}, nil
}

func (c *Client) Enabled() bool {
	return c.Pool != nil
}

func (c *Client) Shutdown() error {
	if c.Pool != nil {
		c.Pool.Close()
	}

	return nil
}
