package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/utils"
)

// AppointmentRepository keeps appointments in process memory. Ids come from a
// per-instance counter.
type AppointmentRepository struct {
	mu     sync.RWMutex
	byID   map[string]*entity.Appointment
	order  []string
	nextID int
}

type Option func(*AppointmentRepository)

// WithSampleData seeds the three demo appointments.
func WithSampleData() Option {
	return func(r *AppointmentRepository) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		at := func(h int) *int64 {
			millis := today.Add(time.Duration(h) * time.Hour).UnixMilli()
			return &millis
		}
		str := func(s string) *string { return &s }

		samples := []*entity.Appointment{
			{Text: "Zahnarzttermin", Category: "Gesundheit", Color: "#FF0000", Priority: 1, ScheduledDate: at(10), Duration: str("1 Std")},
			{Text: "Projekt abschließen", Category: "Arbeit", Color: "#0000FF", Priority: 2, ScheduledDate: at(14), Duration: str("2-3 Std")},
			{Text: "Lebensmittel einkaufen", Category: "Privat", Color: "#00FF00", Priority: 3, ScheduledDate: at(16), Duration: str("30 min"), IsOutOfHome: true},
		}
		for _, s := range samples {
			r.insert(s)
		}
	}
}

func NewAppointmentRepository(opts ...Option) *AppointmentRepository {
	r := &AppointmentRepository{
		byID:   make(map[string]*entity.Appointment),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a copy of appt. An explicit id that already exists replaces
// the stored record.
func (r *AppointmentRepository) Create(_ context.Context, appt *entity.Appointment) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(appt).Clone(), nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id string) (*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

func (r *AppointmentRepository) GetAll(_ context.Context) ([]*entity.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appts := make([]*entity.Appointment, 0, len(r.order))
	for _, id := range r.order {
		appts = append(appts, r.byID[id].Clone())
	}
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Priority < appts[j].Priority
	})
	return appts, nil
}

func (r *AppointmentRepository) Update(_ context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	stored.Overwrite(appt)
	return stored.Clone(), nil
}

func (r *AppointmentRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *AppointmentRepository) UpdatePriorities(_ context.Context, priorities map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, priority := range priorities {
		if stored, ok := r.byID[id]; ok {
			stored.Priority = priority
		}
	}
	return nil
}

func (r *AppointmentRepository) Close() error {
	return nil
}

// insert must be called with mu held.
func (r *AppointmentRepository) insert(appt *entity.Appointment) *entity.Appointment {
	stored := appt.Clone()
	if stored.ID == "" {
		stored.ID = r.newID()
	}
	stored.StampCreatedAt(utils.NowUTC())
	if stored.Priority == 0 {
		stored.Priority = r.maxPriority() + 1
	}

	if _, exists := r.byID[stored.ID]; !exists {
		r.order = append(r.order, stored.ID)
	}
	r.byID[stored.ID] = stored
	return stored
}

func (r *AppointmentRepository) newID() string {
	for {
		id := strconv.Itoa(r.nextID)
		r.nextID++
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}

func (r *AppointmentRepository) maxPriority() int {
	if len(r.byID) == 0 {
		return 0
	}
	first := true
	max := 0
	for _, a := range r.byID {
		if first || a.Priority > max {
			max = a.Priority
			first = false
		}
	}
	return max
}
