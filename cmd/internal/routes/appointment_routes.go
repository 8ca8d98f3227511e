package routes

import (
	"context"
	"net/http"
	"strings"

	"terminplaner/cmd/internal/service"
	"terminplaner/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	GetAppointments(ctx context.Context) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	GetAppointment(ctx context.Context, id string) (*service.AppointmentResponse, apierror.ErrorResponse)
	CreateAppointment(ctx context.Context, req *service.AppointmentRequest) (*service.AppointmentResponse, apierror.ErrorResponse)
	UpdateAppointment(ctx context.Context, id string, req *service.AppointmentRequest) (*service.AppointmentResponse, apierror.ErrorResponse)
	DeleteAppointment(ctx context.Context, id string) apierror.ErrorResponse
	UpdatePriorities(ctx context.Context, priorities map[string]int) apierror.ErrorResponse
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

// Register mounts the appointment endpoints under /api.
func (a *DefaultAppointmentRoute) Register(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/appointments", a.GetAppointments)
	g.POST("/appointments", a.CreateAppointment)
	g.PUT("/appointments/priorities", a.UpdatePriorities)
	g.GET("/appointments/:id", a.GetAppointment)
	g.PUT("/appointments/:id", a.UpdateAppointment)
	g.DELETE("/appointments/:id", a.DeleteAppointment)
}

// GetAppointments answers with a bare array, which is what existing clients
// deserialize.
func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	appts, apierr := a.AppointmentService.GetAppointments(c.Request().Context())
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appts)
}

func (a *DefaultAppointmentRoute) GetAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	appt, apierr := a.AppointmentService.GetAppointment(c.Request().Context(), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	appt, apierr := a.AppointmentService.CreateAppointment(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/appointments/"+appt.ID)
	return c.JSON(http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) UpdateAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	appt, apierr := a.AppointmentService.UpdateAppointment(c.Request().Context(), id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) DeleteAppointment(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	apierr := a.AppointmentService.DeleteAppointment(c.Request().Context(), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *DefaultAppointmentRoute) UpdatePriorities(c echo.Context) error {
	var priorities map[string]int
	if err := c.Bind(&priorities); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	apierr := a.AppointmentService.UpdatePriorities(c.Request().Context(), priorities)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
