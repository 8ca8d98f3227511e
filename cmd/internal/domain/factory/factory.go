package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"terminplaner/cmd/internal/config"
	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/domain/hybrid"
	"terminplaner/cmd/internal/domain/memory"
	"terminplaner/cmd/internal/domain/sqlite"
	sqliterepo "terminplaner/cmd/internal/domain/sqlite/repository"
	"terminplaner/cmd/internal/domain/surreal"
	surrealrepo "terminplaner/cmd/internal/domain/surreal/repository"

	"github.com/labstack/gommon/log"
)

var ErrRemoteNotConfigured = errors.New("remote repository selected but surrealdb url, namespace or database is missing")

type Store interface {
	Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error)
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	GetAll(ctx context.Context) ([]*entity.Appointment, error)
	Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpdatePriorities(ctx context.Context, priorities map[string]int) error
	Close() error
}

type Mode string

const (
	ModeInMemory Mode = "InMemory"
	ModeSqlite   Mode = "Sqlite"
	ModeRemote   Mode = "Remote"
	ModeHybrid   Mode = "Hybrid"
)

// ParseMode resolves a configured repository type. CosmosDb and SurrealDb are
// accepted as names for the remote store; anything unknown is InMemory.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqlite":
		return ModeSqlite
	case "remote", "surrealdb", "cosmosdb":
		return ModeRemote
	case "hybrid":
		return ModeHybrid
	}
	return ModeInMemory
}

// connectRemote is swapped in tests.
var connectRemote = func(ctx context.Context, cfg surreal.Config) (hybrid.AppointmentRepository, error) {
	db, err := surreal.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return surrealrepo.NewAppointmentRepository(db), nil
}

func New(ctx context.Context, cfg *config.Config) (Store, error) {
	mode := ParseMode(cfg.RepositoryType)
	log.Infof("using %s repository", mode)

	switch mode {
	case ModeSqlite:
		return newSqlite(cfg)

	case ModeRemote:
		remoteCfg := surrealConfig(cfg)
		if !remoteCfg.Configured() {
			return nil, ErrRemoteNotConfigured
		}
		remote, err := connectRemote(ctx, remoteCfg)
		if err != nil {
			return nil, fmt.Errorf("init remote repository: %w", err)
		}
		return remote, nil

	case ModeHybrid:
		local, err := newSqlite(cfg)
		if err != nil {
			return nil, err
		}
		return hybrid.New(local, newOptionalRemote(ctx, cfg)), nil
	}

	if !strings.EqualFold(cfg.RepositoryType, string(ModeInMemory)) && cfg.RepositoryType != "" {
		log.Warnf("unknown repository type %q, falling back to %s", cfg.RepositoryType, ModeInMemory)
	}
	var opts []memory.Option
	if cfg.SeedSampleData {
		opts = append(opts, memory.WithSampleData())
	}
	return memory.NewAppointmentRepository(opts...), nil
}

// Initialize runs the one-time sync when store is a hybrid repository. The
// bool reports whether a sync was attempted.
func Initialize(ctx context.Context, store Store) (hybrid.SyncReport, bool) {
	h, ok := store.(*hybrid.Repository)
	if !ok {
		return hybrid.SyncReport{}, false
	}
	return h.Sync(ctx), true
}

func newSqlite(cfg *config.Config) (*sqliterepo.DefaultAppointmentRepository, error) {
	db, err := sqlite.Init(sqlite.Config{Path: cfg.Sqlite.Path, Debug: cfg.Sqlite.Debug})
	if err != nil {
		return nil, fmt.Errorf("init sqlite repository: %w", err)
	}
	return sqliterepo.NewAppointmentRepository(db), nil
}

// newOptionalRemote returns nil when no remote is configured or it cannot be
// reached. The hybrid repository then stays local-only.
func newOptionalRemote(ctx context.Context, cfg *config.Config) hybrid.AppointmentRepository {
	remoteCfg := surrealConfig(cfg)
	if !remoteCfg.Configured() {
		log.Infof("no remote repository configured, running local-only")
		return nil
	}
	remote, err := connectRemote(ctx, remoteCfg)
	if err != nil {
		log.Warnf("remote repository unavailable, running local-only: %v", err)
		return nil
	}
	return remote
}

func surrealConfig(cfg *config.Config) surreal.Config {
	return surreal.Config{
		URL:       cfg.SurrealDB.URL,
		Namespace: cfg.SurrealDB.Namespace,
		Database:  cfg.SurrealDB.Database,
		Username:  cfg.SurrealDB.Username,
		Password:  cfg.SurrealDB.Password,
	}
}
