package repository

import (
	"context"
	"fmt"
	"strings"

	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/utils"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const table = "appointments"

// appointmentDocument is the stored shape. The record id carries the
// appointment id, so it is not repeated as a field.
type appointmentDocument struct {
	ID            *models.RecordID `json:"id,omitempty"`
	Text          string           `json:"text"`
	Category      string           `json:"category"`
	Color         string           `json:"color"`
	Priority      int              `json:"priority"`
	CreatedAt     int64            `json:"created_at"`
	ScheduledDate *int64           `json:"scheduled_date,omitempty"`
	Duration      *string          `json:"duration,omitempty"`
	IsOutOfHome   bool             `json:"is_out_of_home"`
}

type DefaultAppointmentRepository struct {
	db *surrealdb.DB
}

func NewAppointmentRepository(db *surrealdb.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func recordID(id string) models.RecordID {
	return models.NewRecordID(table, id)
}

// Create writes appt under its own record id. SurrealDB rejects an id that
// already exists.
func (a *DefaultAppointmentRepository) Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error) {
	stored := appt.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.StampCreatedAt(utils.NowUTC())

	if stored.Priority == 0 {
		max, err := a.maxPriority(ctx)
		if err != nil {
			return nil, err
		}
		stored.Priority = max + 1
	}

	created, err := surrealdb.Create[appointmentDocument](ctx, a.db, recordID(stored.ID), toDocument(stored))
	if err != nil {
		return nil, fmt.Errorf("create appointment %s: %w", stored.ID, err)
	}
	if created == nil || created.ID == nil {
		return stored, nil
	}
	return fromDocument(created), nil
}

func (a *DefaultAppointmentRepository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	doc, err := surrealdb.Select[appointmentDocument](ctx, a.db, recordID(id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	// The fxamacker codec returns an empty document instead of nil.
	if doc == nil || doc.ID == nil {
		return nil, nil
	}
	return fromDocument(doc), nil
}

func (a *DefaultAppointmentRepository) GetAll(ctx context.Context) ([]*entity.Appointment, error) {
	query := "SELECT * FROM type::table($tb) ORDER BY priority ASC"
	result, err := surrealdb.Query[[]appointmentDocument](ctx, a.db, query, map[string]any{
		"tb": table,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	appts := make([]*entity.Appointment, 0)
	if result == nil || len(*result) == 0 {
		return appts, nil
	}
	for i := range (*result)[0].Result {
		appts = append(appts, fromDocument(&(*result)[0].Result[i]))
	}
	return appts, nil
}

// Update reads the record first so a missing id stays a not-found instead of
// creating a new record.
func (a *DefaultAppointmentRepository) Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error) {
	existing, err := a.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	existing.Overwrite(appt)
	return a.replace(ctx, existing)
}

func (a *DefaultAppointmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := a.GetByID(ctx, id)
	if err != nil || existing == nil {
		return false, err
	}
	if _, err := surrealdb.Delete[appointmentDocument](ctx, a.db, recordID(id)); err != nil {
		return false, fmt.Errorf("delete appointment %s: %w", id, err)
	}
	return true, nil
}

// UpdatePriorities applies entries one by one. There is no cross entry
// atomicity: an error leaves earlier entries applied.
func (a *DefaultAppointmentRepository) UpdatePriorities(ctx context.Context, priorities map[string]int) error {
	for id, priority := range priorities {
		existing, err := a.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			continue
		}
		existing.Priority = priority
		if _, err := a.replace(ctx, existing); err != nil {
			return err
		}
	}
	return nil
}

func (a *DefaultAppointmentRepository) Close() error {
	return a.db.Close(context.Background())
}

func (a *DefaultAppointmentRepository) replace(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error) {
	updated, err := surrealdb.Update[appointmentDocument](ctx, a.db, recordID(appt.ID), toDocument(appt))
	if err != nil {
		return nil, fmt.Errorf("update appointment %s: %w", appt.ID, err)
	}
	if updated == nil || updated.ID == nil {
		return appt, nil
	}
	return fromDocument(updated), nil
}

func (a *DefaultAppointmentRepository) maxPriority(ctx context.Context) (int, error) {
	query := "RETURN math::max((SELECT VALUE priority FROM type::table($tb))) ?? 0"
	result, err := surrealdb.Query[int](ctx, a.db, query, map[string]any{
		"tb": table,
	})
	if err != nil {
		return 0, fmt.Errorf("read max priority: %w", err)
	}
	if result == nil || len(*result) == 0 {
		return 0, nil
	}
	return (*result)[0].Result, nil
}

func toDocument(appt *entity.Appointment) *appointmentDocument {
	return &appointmentDocument{
		Text:          appt.Text,
		Category:      appt.Category,
		Color:         appt.Color,
		Priority:      appt.Priority,
		CreatedAt:     appt.CreatedAt,
		ScheduledDate: appt.ScheduledDate,
		Duration:      appt.Duration,
		IsOutOfHome:   appt.IsOutOfHome,
	}
}

func fromDocument(doc *appointmentDocument) *entity.Appointment {
	appt := &entity.Appointment{
		Text:          doc.Text,
		Category:      doc.Category,
		Color:         doc.Color,
		Priority:      doc.Priority,
		CreatedAt:     doc.CreatedAt,
		ScheduledDate: doc.ScheduledDate,
		Duration:      doc.Duration,
		IsOutOfHome:   doc.IsOutOfHome,
	}
	if doc.ID != nil {
		appt.ID = fmt.Sprint(doc.ID.ID)
	}
	return appt.Clone()
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}
