package entity

const (
	DefaultCategory = "Standard"
	DefaultColor    = "#808080"

	// MinCreatedAt is 0001-01-01T00:00:00Z in epoch millis, the "unset" sentinel
	// some clients send instead of omitting the field.
	MinCreatedAt int64 = -62135596800000
)

type Appointment struct {
	ID            string `gorm:"primaryKey"`
	Text          string `gorm:"not null"`
	Category      string `gorm:"not null"`
	Color         string `gorm:"not null"`
	Priority      int    `gorm:"not null;index"`
	CreatedAt     int64  `gorm:"not null;autoCreateTime:false"`
	ScheduledDate *int64
	Duration      *string
	IsOutOfHome   bool `gorm:"not null"`
}

// New returns an appointment carrying the default category and color.
func New() *Appointment {
	return &Appointment{
		Category: DefaultCategory,
		Color:    DefaultColor,
	}
}

// HasCreatedAt reports whether CreatedAt holds a caller supplied value that
// stores must preserve.
func (a *Appointment) HasCreatedAt() bool {
	return a.CreatedAt != 0 && a.CreatedAt > MinCreatedAt
}

// StampCreatedAt sets CreatedAt to now unless a real value is already present.
func (a *Appointment) StampCreatedAt(now int64) {
	if !a.HasCreatedAt() {
		a.CreatedAt = now
	}
}

// Overwrite copies every mutable field from src. ID and CreatedAt are kept.
func (a *Appointment) Overwrite(src *Appointment) {
	a.Text = src.Text
	a.Category = src.Category
	a.Color = src.Color
	a.Priority = src.Priority
	a.ScheduledDate = copyPtr(src.ScheduledDate)
	a.Duration = copyPtr(src.Duration)
	a.IsOutOfHome = src.IsOutOfHome
}

// Clone returns a deep copy, so stores never share pointer fields with callers.
func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	c := *a
	c.ScheduledDate = copyPtr(a.ScheduledDate)
	c.Duration = copyPtr(a.Duration)
	return &c
}

// SyncEqual compares the fields that take part in conflict resolution.
// CreatedAt is left out on purpose: stores round it differently.
func SyncEqual(a, b *Appointment) bool {
	return a.Text == b.Text &&
		a.Category == b.Category &&
		a.Color == b.Color &&
		a.Priority == b.Priority &&
		equalPtr(a.ScheduledDate, b.ScheduledDate) &&
		equalPtr(a.Duration, b.Duration) &&
		a.IsOutOfHome == b.IsOutOfHome
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
