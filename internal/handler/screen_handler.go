package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yakhtimoon-console/internal/dto"
	"github.com/noah-isme/yakhtimoon-console/internal/models"
	"github.com/noah-isme/yakhtimoon-console/internal/service"
	"github.com/noah-isme/yakhtimoon-console/internal/transport"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/response"
)

type screenProvider interface {
	Names() []string
	Get(name string) (service.Screen, error)
	Open(ctx context.Context, name string) (service.Screen, error)
}

type screenExporter interface {
	Export(screen service.Screen, format string) (*service.ExportResult, error)
}

type auditReader interface {
	Recent(ctx context.Context, screen string, limit int) ([]models.AuditEntry, error)
}

// ScreenHandler exposes the console screens to the UI.
type ScreenHandler struct {
	screens screenProvider
	exports screenExporter
	audit   auditReader
}

// NewScreenHandler constructs a ScreenHandler. exports and audit are optional.
func NewScreenHandler(screens screenProvider, exports screenExporter, audit auditReader) *ScreenHandler {
	return &ScreenHandler{screens: screens, exports: exports, audit: audit}
}

// List godoc
// @Summary List console screens
// @Tags Screens
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /screens [get]
func (h *ScreenHandler) List(c *gin.Context) {
	names := h.screens.Names()
	out := make([]dto.ScreenSummary, 0, len(names))
	for _, name := range names {
		screen, err := h.screens.Get(name)
		if err != nil {
			continue
		}
		out = append(out, dto.ScreenSummary{Name: name, Title: screen.Title(), Mounted: screen.Mounted()})
	}
	response.JSON(c, http.StatusOK, out)
}

// View godoc
// @Summary Screen view
// @Description Mounts the screen on first access and returns its rows, filter, search term and form.
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /screens/{screen} [get]
func (h *ScreenHandler) View(c *gin.Context) {
	var query dto.ViewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	screen, err := h.screens.Open(c.Request.Context(), c.Param("screen"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if query.Search != nil {
		screen.SetSearch(*query.Search)
	}
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// FilterOptions godoc
// @Summary Relation filter options
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/filters [get]
func (h *ScreenHandler) FilterOptions(c *gin.Context) {
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	choices, err := screen.FilterOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, choices)
}

// SetFilter godoc
// @Summary Scope a screen to a parent record
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.FilterRequest true "Filter, or {} to clear"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/filter [put]
func (h *ScreenHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload"))
		return
	}
	filter, err := service.ParseFilter(req.Relation, req.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := screen.SetFilter(c.Request.Context(), filter); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// Refresh godoc
// @Summary Refetch the rows of a screen
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /screens/{screen}/refresh [post]
func (h *ScreenHandler) Refresh(c *gin.Context) {
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := screen.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// OpenForm godoc
// @Summary Open the create or edit form
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.FormRequest false "Row key to edit; omit to create"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/form [post]
func (h *ScreenHandler) OpenForm(c *gin.Context) {
	var req dto.FormRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form payload"))
		return
	}
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	var err error
	if req.Key == "" {
		err = screen.OpenCreate(c.Request.Context())
	} else {
		err = screen.OpenEdit(c.Request.Context(), req.Key)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// CloseForm godoc
// @Summary Close the form without saving
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/form [delete]
func (h *ScreenHandler) CloseForm(c *gin.Context) {
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	screen.CloseForm()
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// Submit godoc
// @Summary Submit the open form
// @Description Accepts JSON or multipart/form-data. Field errors from the course API come back in error.fields.
// @Tags Screens
// @Accept json,mpfd
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /screens/{screen}/submit [post]
func (h *ScreenHandler) Submit(c *gin.Context) {
	payload, err := submitPayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := screen.Submit(c.Request.Context(), payload); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, screen.Snapshot())
}

// DeleteRow godoc
// @Summary Delete a row
// @Description Nothing is deleted unless confirm=true.
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Param key path string true "Row key"
// @Param confirm query bool false "Operator confirmation"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/rows/{key} [delete]
func (h *ScreenHandler) DeleteRow(c *gin.Context) {
	var query dto.DeleteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirm flag"))
		return
	}
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	if err := screen.Delete(c.Request.Context(), c.Param("key"), query.Confirm); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, screen.Snapshot(), map[string]interface{}{"confirmed": query.Confirm})
}

// Export godoc
// @Summary Export the visible rows
// @Tags Screens
// @Produce text/csv,application/pdf
// @Param screen path string true "Screen name"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /screens/{screen}/export [get]
func (h *ScreenHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled"))
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}
	screen, ok := h.resolve(c)
	if !ok {
		return
	}
	result, err := h.exports.Export(screen, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

// Audit godoc
// @Summary Recent mutations of a screen
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /screens/{screen}/audit [get]
func (h *ScreenHandler) Audit(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "audit trail is disabled"))
		return
	}
	var query dto.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid limit"))
		return
	}
	screen, err := h.screens.Get(c.Param("screen"))
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.audit.Recent(c.Request.Context(), screen.Name(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

func (h *ScreenHandler) resolve(c *gin.Context) (service.Screen, bool) {
	screen, err := h.screens.Open(c.Request.Context(), c.Param("screen"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return screen, true
}

func submitPayload(c *gin.Context) (interface{}, error) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
		}
		return formDataOf(form)
	}
	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload")
	}
	return body, nil
}

func formDataOf(form *multipart.Form) (*transport.FormData, error) {
	data := transport.NewFormData()
	for _, name := range sortedKeys(form.Value) {
		for _, value := range form.Value[name] {
			data.Set(name, value)
		}
	}
	for _, field := range sortedKeys(form.File) {
		for _, header := range form.File[field] {
			content, err := readPart(header)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, fmt.Sprintf("failed to read %s", field))
			}
			data.AddFile(field, header.Filename, content)
		}
	}
	return data, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
