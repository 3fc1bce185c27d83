package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iquiquesec/ciberseguridad/internal/features"
)

func (s *Server) GetFeatures(c echo.Context) error {
	set := s.features.GetAll(c.Request().Context())
	resp := FeaturesResponse{Features: make(map[string]FeatureView, len(set))}
	for key, f := range set {
		resp.Features[key] = FeatureView{Name: f.Name, Enabled: f.Enabled}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateFeature(c echo.Context) error {
	key := c.Param("key")

	var body map[string]interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, DetailResponse{Detail: msgMissingEnabled})
	}
	raw, ok := body["enabled"]
	if !ok {
		return c.JSON(http.StatusBadRequest, DetailResponse{Detail: msgMissingEnabled})
	}
	enabled, ok := features.ParseEnabled(raw)
	if !ok {
		return c.JSON(http.StatusBadRequest, DetailResponse{Detail: msgInvalidEnabled})
	}

	updated, err := s.features.Set(c.Request().Context(), key, enabled)
	if err != nil {
		s.logger.WithError(err).WithField("feature", key).Error("failed to update feature")
		return c.JSON(http.StatusInternalServerError, DetailResponse{Detail: MsgInternalError})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, DetailResponse{Detail: msgFeatureNotFound})
	}
	return c.JSON(http.StatusOK, FeatureUpdated{Feature: key, Enabled: enabled})
}
