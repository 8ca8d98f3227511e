package service

import (
	"context"

	"terminplaner/cmd/internal/domain/entity"
	"terminplaner/cmd/internal/utils"
	"terminplaner/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appt *entity.Appointment) (*entity.Appointment, error)
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	GetAll(ctx context.Context) ([]*entity.Appointment, error)
	Update(ctx context.Context, id string, appt *entity.Appointment) (*entity.Appointment, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpdatePriorities(ctx context.Context, priorities map[string]int) error
}

// AppointmentRequest is the body of POST and PUT. Omitted category and color
// fall back to the defaults. The id, color and timestamps are trimmed; text,
// category and duration are stored as typed.
type AppointmentRequest struct {
	ID            string  `json:"id" validate:"max=128"`
	Text          string  `json:"text" validate:"max=1024" sanitize:"-"`
	Category      *string `json:"category" validate:"omitempty,max=128" sanitize:"-"`
	Color         *string `json:"color" validate:"omitempty,hexcolor6"`
	Priority      int     `json:"priority"`
	CreatedAt     *string `json:"createdAt" validate:"omitempty,iso8601"`
	ScheduledDate *string `json:"scheduledDate" validate:"omitempty,iso8601"`
	Duration      *string `json:"duration" validate:"omitempty,max=64" sanitize:"-"`
	IsOutOfHome   bool    `json:"isOutOfHome"`
}

type AppointmentResponse struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Category      string  `json:"category"`
	Color         string  `json:"color"`
	Priority      int     `json:"priority"`
	CreatedAt     string  `json:"createdAt"`
	ScheduledDate *string `json:"scheduledDate"`
	Duration      *string `json:"duration"`
	IsOutOfHome   bool    `json:"isOutOfHome"`
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	Validate        *validator.Validate
}

func NewAppointmentService(apptRepo AppointmentRepository, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{AppointmentRepo: apptRepo, Validate: validate}
}

func (a *DefaultAppointmentService) GetAppointments(ctx context.Context) ([]*AppointmentResponse, apierror.ErrorResponse) {
	appts, err := a.AppointmentRepo.GetAll(ctx)
	if err != nil {
		log.Errorf("failed to list appointments: %v", err)
		return nil, apierror.InternalServerError
	}

	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = toAppointmentResponse(appt)
	}
	return response, nil
}

func (a *DefaultAppointmentService) GetAppointment(ctx context.Context, id string) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, err := a.AppointmentRepo.GetByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %s: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if appt == nil {
		return nil, apierror.NotFoundError
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) CreateAppointment(ctx context.Context, req *AppointmentRequest) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.toEntity(req)
	if apierr != nil {
		return nil, apierr
	}

	created, err := a.AppointmentRepo.Create(ctx, appt)
	if err != nil {
		log.Errorf("failed to save appointment: %v", err)
		return nil, apierror.InternalServerError
	}
	return toAppointmentResponse(created), nil
}

func (a *DefaultAppointmentService) UpdateAppointment(ctx context.Context, id string, req *AppointmentRequest) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.toEntity(req)
	if apierr != nil {
		return nil, apierr
	}

	updated, err := a.AppointmentRepo.Update(ctx, id, appt)
	if err != nil {
		log.Errorf("failed to update appointment %s: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if updated == nil {
		return nil, apierror.NotFoundError
	}
	return toAppointmentResponse(updated), nil
}

func (a *DefaultAppointmentService) DeleteAppointment(ctx context.Context, id string) apierror.ErrorResponse {
	deleted, err := a.AppointmentRepo.Delete(ctx, id)
	if err != nil {
		log.Errorf("failed to delete appointment by id %s: %v", id, err)
		return apierror.InternalServerError
	}
	if !deleted {
		return apierror.NotFoundError
	}
	return nil
}

func (a *DefaultAppointmentService) UpdatePriorities(ctx context.Context, priorities map[string]int) apierror.ErrorResponse {
	if valerr := a.Validate.Var(priorities, "dive,keys,required,endkeys"); valerr != nil {
		return apierror.NewInvalidFieldError("id", "required")
	}

	err := a.AppointmentRepo.UpdatePriorities(ctx, priorities)
	if err != nil {
		log.Errorf("failed to update priorities for %d appointments: %v", len(priorities), err)
		return apierror.InternalServerError
	}
	return nil
}

func (a *DefaultAppointmentService) toEntity(req *AppointmentRequest) (*entity.Appointment, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	scheduled, err := utils.FromEpochPtr(req.ScheduledDate)
	if err != nil {
		return nil, apierror.NewInvalidFieldError("scheduledDate", "iso8601")
	}
	createdAt, err := utils.FromEpochPtr(req.CreatedAt)
	if err != nil {
		return nil, apierror.NewInvalidFieldError("createdAt", "iso8601")
	}

	appt := entity.New()
	appt.ID = req.ID
	appt.Text = req.Text
	appt.Priority = req.Priority
	appt.ScheduledDate = scheduled
	appt.Duration = req.Duration
	appt.IsOutOfHome = req.IsOutOfHome
	if req.Category != nil {
		appt.Category = *req.Category
	}
	if req.Color != nil && *req.Color != "" {
		appt.Color = *req.Color
	}
	if createdAt != nil {
		appt.CreatedAt = *createdAt
	}
	return appt, nil
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:            appt.ID,
		Text:          appt.Text,
		Category:      appt.Category,
		Color:         appt.Color,
		Priority:      appt.Priority,
		CreatedAt:     utils.FormatEpoch(appt.CreatedAt),
		ScheduledDate: utils.FormatEpochPtr(appt.ScheduledDate),
		Duration:      appt.Duration,
		IsOutOfHome:   appt.IsOutOfHome,
	}
}
