package api

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/types"
)

//go:embed templates/admin.html
var adminPageSource string

var adminPage = template.Must(template.New("admin").Parse(adminPageSource))

type adminPageData struct {
	Generated    string
	Features     []features.Flag
	Devices      []types.Device
	DevicesError bool
}

// AdminPage renders the flag and device overview. A device listing failure
// still renders the flags.
func (s *Server) AdminPage(c echo.Context) error {
	ctx := c.Request().Context()
	set := s.features.GetAll(ctx)
	data := adminPageData{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Features:  make([]features.Flag, 0, len(set)),
	}
	for _, key := range set.Keys() {
		data.Features = append(data.Features, set[key])
	}

	devices, err := s.inventory.ListDevices(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to list devices for admin page")
		data.DevicesError = true
	}
	data.Devices = devices

	var buf bytes.Buffer
	if err := adminPage.Execute(&buf, data); err != nil {
		s.logger.WithError(err).Error("failed to render admin page")
		return c.JSON(http.StatusInternalServerError, NewErrorResponseWithMessage(MsgInternalError))
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
