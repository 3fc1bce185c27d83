package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

func (s *Server) CreateReport(c echo.Context) error {
	if s.reports == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponseWithMessage(msgReportsUnavailable))
	}
	key, err := s.reports.Export(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to export report")
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
	return c.JSON(http.StatusCreated, NewSuccessResponse(http.StatusCreated, types.ReportCreated{Key: key}))
}

// GetReport serves /reports/* because report keys contain a slash. The
// leading "reports/" of the key may be omitted.
func (s *Server) GetReport(c echo.Context) error {
	if s.reports == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponseWithMessage(msgReportsUnavailable))
	}
	key := c.Param("*")
	if !strings.HasPrefix(key, service.ReportPrefix) {
		key = service.ReportPrefix + key
	}
	content, err := s.reports.Get(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponseWithMessage(msgNotFound))
		}
		s.logger.WithError(err).Error("failed to get report")
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
	return c.JSONBlob(http.StatusOK, content)
}
