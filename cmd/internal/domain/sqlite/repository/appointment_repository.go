package repository

import (
	"context"
	"errors"
	"fmt"

	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

// Create inserts appt. A caller supplied id or CreatedAt is kept, so records
// copied from another store retain their identity. A duplicate id fails with
// the primary key violation.
func (a *DefaultAppointmentRepository) Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error) {
	stored := appt.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.StampCreatedAt(utils.NowUTC())

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if stored.Priority == 0 {
			var max int
			err := tx.Model(&entity.Appointment{}).
				Select("COALESCE(MAX(priority), 0)").
				Scan(&max).Error
			if err != nil {
				return err
			}
			stored.Priority = max + 1
		}
		return tx.Create(stored).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment %s: %w", stored.ID, err)
	}
	return stored, nil
}

func (a *DefaultAppointmentRepository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.WithContext(ctx).Where("id = ?", id).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (a *DefaultAppointmentRepository) GetAll(ctx context.Context) ([]*entity.Appointment, error) {
	appts := make([]*entity.Appointment, 0)
	err := a.db.WithContext(ctx).
		Order("priority asc").
		Order("rowid asc").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// Update overwrites every mutable column. Zero values are written too, which
// is why a column map is used instead of a struct.
func (a *DefaultAppointmentRepository) Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error) {
	result := a.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"text":           appt.Text,
			"category":       appt.Category,
			"color":          appt.Color,
			"priority":       appt.Priority,
			"scheduled_date": appt.ScheduledDate,
			"duration":       appt.Duration,
			"is_out_of_home": appt.IsOutOfHome,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("update appointment %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return a.GetByID(ctx, id)
}

func (a *DefaultAppointmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := a.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Appointment{})
	if result.Error != nil {
		return false, fmt.Errorf("delete appointment %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdatePriorities applies all entries in one transaction. Unknown ids match
// no row and are skipped.
func (a *DefaultAppointmentRepository) UpdatePriorities(ctx context.Context, priorities map[string]int) error {
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, priority := range priorities {
			err := tx.Model(&entity.Appointment{}).
				Where("id = ?", id).
				Update("priority", priority).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update priorities: %w", err)
	}
	return nil
}

func (a *DefaultAppointmentRepository) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
