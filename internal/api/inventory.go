package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

const defaultPageSize = 100

// bindAndValidate decodes the request body into req and runs the struct
// validator. A non-nil result is the 400 body to send back.
func bindAndValidate(c echo.Context, req interface{}) *APIResponse[interface{}] {
	if err := c.Bind(req); err != nil {
		resp := NewErrorResponseWithMessage(msgRequestParseFailed)
		return &resp
	}
	if err := c.Validate(req); err != nil {
		resp := NewErrorResponseWithDetails(msgValidationFailed, err.Error())
		return &resp
	}
	return nil
}

// errorResponse maps service and storage errors to HTTP responses.
func (s *Server) errorResponse(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponseWithMessage(msgNotFound))
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithDetails(msgValidationFailed, err.Error()))
	default:
		s.logger.WithError(err).Errorf("failed to %s", action)
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
}

func pagination(c echo.Context) (int, int) {
	skip, err := strconv.Atoi(c.QueryParam("skip"))
	if err != nil || skip < 0 {
		skip = 0
	}
	take, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || take <= 0 {
		take = defaultPageSize
	}
	return skip, take
}

func parseDeviceID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) ListDevices(c echo.Context) error {
	devices, err := s.inventory.ListDevices(c.Request().Context())
	if err != nil {
		return s.errorResponse(c, err, "list devices")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, types.DeviceList{Devices: devices}))
}

func (s *Server) GetDevice(c echo.Context) error {
	id, ok := parseDeviceID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	device, err := s.inventory.GetDevice(c.Request().Context(), id)
	if err != nil {
		return s.errorResponse(c, err, "get device")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, device))
}

func (s *Server) CreateDevice(c echo.Context) error {
	var req types.DeviceCreateDto
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	device, err := s.inventory.CreateDevice(c.Request().Context(), req)
	if err != nil {
		return s.errorResponse(c, err, "create device")
	}
	return c.JSON(http.StatusCreated, NewSuccessResponse(http.StatusCreated, device))
}

func (s *Server) UpdateDevice(c echo.Context) error {
	id, ok := parseDeviceID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	var req types.DeviceUpdateDto
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	device, err := s.inventory.UpdateDevice(c.Request().Context(), id, req)
	if err != nil {
		return s.errorResponse(c, err, "update device")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, device))
}

func (s *Server) DeleteDevice(c echo.Context) error {
	id, ok := parseDeviceID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	if err := s.inventory.DeleteDevice(c.Request().Context(), id); err != nil {
		return s.errorResponse(c, err, "delete device")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ListEndpoints(c echo.Context) error {
	skip, take := pagination(c)
	list, err := s.inventory.ListEndpoints(c.Request().Context(), skip, take)
	if err != nil {
		return s.errorResponse(c, err, "list endpoints")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, list))
}

func (s *Server) GetEndpoint(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	endpoint, err := s.inventory.GetEndpoint(c.Request().Context(), id)
	if err != nil {
		return s.errorResponse(c, err, "get endpoint")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, endpoint))
}

func (s *Server) CreateEndpoint(c echo.Context) error {
	var req types.EndpointCreateDto
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	endpoint, err := s.inventory.CreateEndpoint(c.Request().Context(), req)
	if err != nil {
		return s.errorResponse(c, err, "create endpoint")
	}
	return c.JSON(http.StatusCreated, NewSuccessResponse(http.StatusCreated, endpoint))
}

func (s *Server) UpdateEndpoint(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	var req types.EndpointCreateDto
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	endpoint, err := s.inventory.UpdateEndpoint(c.Request().Context(), id, req)
	if err != nil {
		return s.errorResponse(c, err, "update endpoint")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, endpoint))
}

func (s *Server) DeleteEndpoint(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	if err := s.inventory.DeleteEndpoint(c.Request().Context(), id); err != nil {
		return s.errorResponse(c, err, "delete endpoint")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ListThreats(c echo.Context) error {
	skip, take := pagination(c)
	threats, err := s.inventory.ListThreats(c.Request().Context(), skip, take)
	if err != nil {
		return s.errorResponse(c, err, "list threats")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, threats))
}

func (s *Server) CreateThreat(c echo.Context) error {
	var req types.ThreatCreateDto
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	threat, err := s.inventory.CreateThreat(c.Request().Context(), req)
	if err != nil {
		return s.errorResponse(c, err, "create threat")
	}
	return c.JSON(http.StatusCreated, NewSuccessResponse(http.StatusCreated, threat))
}

func (s *Server) ListPolicies(c echo.Context) error {
	policies, err := s.inventory.ListPolicies(c.Request().Context())
	if err != nil {
		return s.errorResponse(c, err, "list policies")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, policies))
}

func (s *Server) ListIncidents(c echo.Context) error {
	skip, take := pagination(c)
	incidents, err := s.inventory.ListIncidents(c.Request().Context(), skip, take)
	if err != nil {
		return s.errorResponse(c, err, "list incidents")
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, incidents))
}
