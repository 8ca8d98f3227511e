package hybrid

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"terminplaner/cmd/internal/domain/entity"

	"github.com/fishy/errbatch"
	"github.com/fishy/rowlock"
	"github.com/labstack/gommon/log"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error)
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	GetAll(ctx context.Context) ([]*entity.Appointment, error)
	Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpdatePriorities(ctx context.Context, priorities map[string]int) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// gommonLogger forwards to gommon's global logger so the configured level applies.
type gommonLogger struct{}

func (gommonLogger) Infof(format string, args ...interface{}) { log.Infof(format, args...) }
func (gommonLogger) Warnf(format string, args ...interface{}) { log.Warnf(format, args...) }

// SyncReport describes what a Sync call did.
type SyncReport struct {
	Synced      bool
	Skipped     bool
	Pulled      int
	Pushed      int
	Overwritten int
	Err         error
}

func (s SyncReport) String() string {
	switch {
	case s.Err != nil:
		return fmt.Sprintf("sync failed, running local-only: %v", s.Err)
	case s.Skipped:
		return fmt.Sprintf("sync skipped (synced=%t)", s.Synced)
	}
	return fmt.Sprintf("sync complete: pulled=%d pushed=%d overwritten=%d", s.Pulled, s.Pushed, s.Overwritten)
}

// Repository serves every read from local and mirrors writes to remote once a
// Sync has succeeded. Remote failures are logged and never reach the caller.
//
// mu guards synced. Sync holds it exclusively for the whole reconciliation
// and writes hold it shared across their local and remote steps, so a write
// is either part of Sync's snapshot or replicated after it.
type Repository struct {
	local  AppointmentRepository
	remote AppointmentRepository
	logger Logger

	mu     sync.RWMutex
	synced bool

	// serializes writes per appointment id so remote applies them in local
	// order. Rows are lock stripes, not ids, so the table never outgrows
	// lockStripes entries.
	locks *rowlock.RowLock
}

const lockStripes = 256

func stripeOf(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % lockStripes)
}

// stripesOf returns the distinct stripes of ids in ascending order.
func stripesOf(ids []string) []int {
	seen := make(map[int]struct{}, len(ids))
	stripes := make([]int, 0, len(ids))
	for _, id := range ids {
		s := stripeOf(id)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		stripes = append(stripes, s)
	}
	sort.Ints(stripes)
	return stripes
}

type Option func(*Repository)

func WithLogger(logger Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New builds a coordinator. remote may be nil, in which case the repository
// stays local-only for its whole lifetime.
func New(local, remote AppointmentRepository, opts ...Option) *Repository {
	r := &Repository{
		local:  local,
		remote: remote,
		logger: gommonLogger{},
		locks:  rowlock.NewRowLock(rowlock.MutexNewLocker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Synced() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.synced
}

// Sync reconciles local and remote once. Records missing on either side are
// copied over with their id and CreatedAt. Records present on both sides that
// differ are overwritten locally with the remote values. Any failure leaves
// the repository unsynced; it is reported, never returned as an error.
func (r *Repository) Sync(ctx context.Context) SyncReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.synced || r.remote == nil {
		r.logger.Infof("sync skipped: already synced or no remote repository configured")
		return SyncReport{Synced: r.synced, Skipped: true}
	}

	r.logger.Infof("starting synchronization between local and remote repositories")
	report, err := r.reconcile(ctx)
	if err != nil {
		r.logger.Warnf("failed to sync with remote repository, continuing in local-only mode: %v", err)
		report.Err = err
		return report
	}

	r.synced = true
	report.Synced = true
	r.logger.Infof("synchronization completed: pulled=%d pushed=%d overwritten=%d",
		report.Pulled, report.Pushed, report.Overwritten)
	return report
}

func (r *Repository) reconcile(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	localAppts, err := r.local.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("read local: %w", err)
	}
	remoteAppts, err := r.remote.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("read remote: %w", err)
	}
	r.logger.Infof("found %d local and %d remote appointments", len(localAppts), len(remoteAppts))

	localByID := indexByID(localAppts)
	remoteByID := indexByID(remoteAppts)

	for _, appt := range remoteAppts {
		if _, ok := localByID[appt.ID]; ok {
			continue
		}
		r.logger.Infof("adding remote appointment %s to local repository", appt.ID)
		if _, err := r.local.Create(ctx, appt.Clone()); err != nil {
			return report, fmt.Errorf("copy %s to local: %w", appt.ID, err)
		}
		report.Pulled++
	}

	for _, appt := range localAppts {
		if _, ok := remoteByID[appt.ID]; ok {
			continue
		}
		r.logger.Infof("adding local appointment %s to remote repository", appt.ID)
		if _, err := r.remote.Create(ctx, appt.Clone()); err != nil {
			return report, fmt.Errorf("copy %s to remote: %w", appt.ID, err)
		}
		report.Pushed++
	}

	for _, local := range localAppts {
		remote, ok := remoteByID[local.ID]
		if !ok || entity.SyncEqual(local, remote) {
			continue
		}
		r.logger.Infof("updating local appointment %s from remote (conflict resolution)", local.ID)
		if _, err := r.local.Update(ctx, local.ID, remote); err != nil {
			return report, fmt.Errorf("overwrite local %s: %w", local.ID, err)
		}
		report.Overwritten++
	}

	return report, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	return r.local.GetByID(ctx, id)
}

func (r *Repository) GetAll(ctx context.Context) ([]*entity.Appointment, error) {
	return r.local.GetAll(ctx)
}

func (r *Repository) Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if appt.ID != "" {
		r.locks.Lock(stripeOf(appt.ID))
		defer r.locks.Unlock(stripeOf(appt.ID))
	}

	created, err := r.local.Create(ctx, appt)
	if err != nil {
		return nil, err
	}

	r.replicate("create appointment "+created.ID, func(remote AppointmentRepository) error {
		_, err := remote.Create(ctx, created.Clone())
		return err
	})
	return created, nil
}

func (r *Repository) Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.locks.Lock(stripeOf(id))
	defer r.locks.Unlock(stripeOf(id))

	updated, err := r.local.Update(ctx, id, appt)
	if err != nil || updated == nil {
		return updated, err
	}

	r.replicate("update appointment "+id, func(remote AppointmentRepository) error {
		_, err := remote.Update(ctx, id, updated.Clone())
		return err
	})
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.locks.Lock(stripeOf(id))
	defer r.locks.Unlock(stripeOf(id))

	deleted, err := r.local.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	r.replicate("delete appointment "+id, func(remote AppointmentRepository) error {
		_, err := remote.Delete(ctx, id)
		return err
	})
	return true, nil
}

func (r *Repository) UpdatePriorities(ctx context.Context, priorities map[string]int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// lock in a fixed order so two overlapping bulk updates cannot deadlock
	ids := make([]string, 0, len(priorities))
	for id := range priorities {
		ids = append(ids, id)
	}
	stripes := stripesOf(ids)
	for _, s := range stripes {
		r.locks.Lock(s)
	}
	defer func() {
		for _, s := range stripes {
			r.locks.Unlock(s)
		}
	}()

	if err := r.local.UpdatePriorities(ctx, priorities); err != nil {
		return err
	}

	r.replicate("update priorities", func(remote AppointmentRepository) error {
		return remote.UpdatePriorities(ctx, priorities)
	})
	return nil
}

// Close closes both stores and reports every failure.
func (r *Repository) Close() error {
	var batch errbatch.ErrBatch
	batch.Add(r.local.Close())
	if r.remote != nil {
		batch.Add(r.remote.Close())
	}
	return batch.Compile()
}

// replicate runs op against remote when one is configured and Sync has
// succeeded. Errors are logged and dropped. Callers hold mu shared.
func (r *Repository) replicate(what string, op func(remote AppointmentRepository) error) {
	if r.remote == nil || !r.synced {
		return
	}
	if err := op(r.remote); err != nil {
		r.logger.Warnf("failed to %s in remote repository: %v", what, err)
	}
}

func indexByID(appts []*entity.Appointment) map[string]*entity.Appointment {
	m := make(map[string]*entity.Appointment, len(appts))
	for _, a := range appts {
		m[a.ID] = a
	}
	return m
}
