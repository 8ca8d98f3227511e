package surreal

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

var ErrNotConfigured = errors.New("surrealdb url, namespace and database are required")

type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Configured reports whether enough settings are present to attempt a
// connection. Credentials are optional for unauthenticated dev servers.
func (c Config) Configured() bool {
	return c.URL != "" && c.Namespace != "" && c.Database != ""
}

// Init connects to SurrealDB, signs in when credentials are present and
// selects the namespace and database.
func Init(ctx context.Context, cfg Config) (*surrealdb.DB, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("use namespace/database: %w", err)
	}
	return db, nil
}
