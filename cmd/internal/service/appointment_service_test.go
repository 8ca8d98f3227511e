package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/domain/memory"
	"terminplaner/cmd/internal/utils/apierror"
	"terminplaner/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenRepo struct {
	*memory.AppointmentRepository
}

var errDisk = errors.New("disk i/o")

func (brokenRepo) GetAll(context.Context) ([]*entity.Appointment, error) { return nil, errDisk }
func (brokenRepo) Create(context.Context, *entity.Appointment) (*entity.Appointment, error) {
	return nil, errDisk
}
func (brokenRepo) Delete(context.Context, string) (bool, error) { return false, errDisk }
func (brokenRepo) UpdatePriorities(context.Context, map[string]int) error { return errDisk }

func newTestService(repo AppointmentRepository) *DefaultAppointmentService {
	validate := validator.New()
	validators.Register(validate)
	return NewAppointmentService(repo, validate)
}

func str(s string) *string { return &s }

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	resp, apierr := svc.CreateAppointment(context.Background(), &AppointmentRequest{Text: "Zahnarzt"})
	require.Nil(t, apierr)

	assert.Equal(t, "Zahnarzt", resp.Text)
	assert.Equal(t, entity.DefaultCategory, resp.Category)
	assert.Equal(t, entity.DefaultColor, resp.Color)
	assert.Equal(t, 1, resp.Priority)
	assert.NotEmpty(t, resp.CreatedAt)
	assert.Nil(t, resp.ScheduledDate)
}

func TestCreateKeepsSuppliedFields(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	resp, apierr := svc.CreateAppointment(context.Background(), &AppointmentRequest{
		Text:          "Projekt",
		Category:      str("Arbeit"),
		Color:         str("#0000FF"),
		Priority:      4,
		CreatedAt:     str("2024-01-02T03:04:05Z"),
		ScheduledDate: str("2025-08-01T14:00:00Z"),
		Duration:      str("2-3 Std"),
		IsOutOfHome:   true,
	})
	require.Nil(t, apierr)

	assert.Equal(t, "Arbeit", resp.Category)
	assert.Equal(t, "#0000FF", resp.Color)
	assert.Equal(t, 4, resp.Priority)
	assert.Equal(t, "2024-01-02T03:04:05Z", resp.CreatedAt)
	require.NotNil(t, resp.ScheduledDate)
	assert.Equal(t, "2025-08-01T14:00:00Z", *resp.ScheduledDate)
	assert.Equal(t, "2-3 Std", *resp.Duration)
	assert.True(t, resp.IsOutOfHome)
}

func TestCreateStoresLabelsVerbatim(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	resp, apierr := svc.CreateAppointment(context.Background(), &AppointmentRequest{
		ID:            " a1 ",
		Text:          "  Zahnarzt  ",
		Category:      str(" Gesundheit"),
		Color:         str(" #FF0000 "),
		ScheduledDate: str(" 2025-08-01T14:00:00Z "),
		Duration:      str("1 Std "),
	})
	require.Nil(t, apierr)

	assert.Equal(t, "a1", resp.ID)
	assert.Equal(t, "  Zahnarzt  ", resp.Text)
	assert.Equal(t, " Gesundheit", resp.Category)
	assert.Equal(t, "#FF0000", resp.Color)
	require.NotNil(t, resp.ScheduledDate)
	assert.Equal(t, "2025-08-01T14:00:00Z", *resp.ScheduledDate)
	assert.Equal(t, "1 Std ", *resp.Duration)
}

func TestCreateSentinelCreatedAtIsStamped(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	resp, apierr := svc.CreateAppointment(context.Background(), &AppointmentRequest{CreatedAt: str("0001-01-01T00:00:00")})
	require.Nil(t, apierr)
	assert.NotEqual(t, "0001-01-01T00:00:00Z", resp.CreatedAt)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	_, apierr := svc.CreateAppointment(context.Background(), &AppointmentRequest{Color: str("red")})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())

	_, apierr = svc.CreateAppointment(context.Background(), &AppointmentRequest{ScheduledDate: str("next week")})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestGetAppointmentNotFound(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	_, apierr := svc.GetAppointment(context.Background(), "nope")
	assert.Equal(t, apierror.NotFoundError, apierr)
}

func TestUpdateAppointment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewAppointmentRepository())

	created, apierr := svc.CreateAppointment(ctx, &AppointmentRequest{Text: "a"})
	require.Nil(t, apierr)

	updated, apierr := svc.UpdateAppointment(ctx, created.ID, &AppointmentRequest{Text: "b", Priority: 3})
	require.Nil(t, apierr)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "b", updated.Text)

	_, apierr = svc.UpdateAppointment(ctx, "nope", &AppointmentRequest{})
	assert.Equal(t, apierror.NotFoundError, apierr)
}

func TestDeleteAppointment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewAppointmentRepository())

	created, apierr := svc.CreateAppointment(ctx, &AppointmentRequest{})
	require.Nil(t, apierr)

	assert.Nil(t, svc.DeleteAppointment(ctx, created.ID))
	assert.Equal(t, apierror.NotFoundError, svc.DeleteAppointment(ctx, created.ID))
}

func TestUpdatePrioritiesRejectsEmptyID(t *testing.T) {
	svc := newTestService(memory.NewAppointmentRepository())

	apierr := svc.UpdatePriorities(context.Background(), map[string]int{"": 1})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestStorageFailuresAreInternal(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(brokenRepo{memory.NewAppointmentRepository()})

	_, apierr := svc.GetAppointments(ctx)
	assert.Equal(t, apierror.InternalServerError, apierr)

	_, apierr = svc.CreateAppointment(ctx, &AppointmentRequest{})
	assert.Equal(t, apierror.InternalServerError, apierr)

	assert.Equal(t, apierror.InternalServerError, svc.DeleteAppointment(ctx, "x"))
	assert.Equal(t, apierror.InternalServerError, svc.UpdatePriorities(ctx, map[string]int{"x": 1}))
}
