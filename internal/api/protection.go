package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

func (s *Server) MonitorFileOperations(c echo.Context) error {
	var req protection.MonitorRequest
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	result := s.registry.Ransomware.MonitorFileOperations(req)
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, result))
}

func (s *Server) BlockProcess(c echo.Context) error {
	var req protection.ProcessInfo
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	result := s.registry.Ransomware.BlockProcess(req)
	s.logger.WithField("pid", req.PID).Warn("process blocked")
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, result))
}

func (s *Server) GetEndpointStatus(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, s.registry.Endpoint.SecurityStatus(id)))
}

func (s *Server) AnalyzeTraffic(c echo.Context) error {
	var req protection.TrafficData
	if resp := bindAndValidate(c, &req); resp != nil {
		return c.JSON(http.StatusBadRequest, resp)
	}
	return c.JSON(http.StatusOK, NewSuccessResponse(http.StatusOK, s.registry.Network.AnalyzeTraffic(req)))
}

// StartScan answers 200 with started=false when the scan is refused by policy.
func (s *Server) StartScan(c echo.Context) error {
	if s.scans == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponseWithMessage(msgScansUnavailable))
	}
	var req types.ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgRequestParseFailed))
	}
	started, err := s.scans.Start(c.Request().Context(), req)
	if err != nil {
		s.logger.WithError(err).Error("failed to start ransomware scan")
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
	return c.JSON(http.StatusOK, started)
}

func (s *Server) GetScanResult(c echo.Context) error {
	if s.inspector == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponseWithMessage(msgScansUnavailable))
	}
	taskID := c.Param("taskId")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponseWithMessage(msgInvalidID))
	}
	result, err := tasks.GetTaskResult(s.inspector, taskID)
	switch {
	case err == nil:
		return c.JSONBlob(http.StatusOK, result)
	case errors.Is(err, tasks.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponseWithMessage(msgNotFound))
	case errors.Is(err, tasks.ErrTaskInProgress):
		return c.JSON(http.StatusAccepted, NewErrorResponseWithMessage(msgScanInProgress))
	case errors.Is(err, tasks.ErrTaskFailed):
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithDetails(msgScanFailed, err.Error()))
	default:
		s.logger.WithError(err).Error("failed to get scan result")
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
}
