package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"docuchat/internal/extractor"
	"docuchat/internal/models"
	"docuchat/internal/rag"
	"docuchat/internal/session"
)

type Handler struct {
	svc *rag.Service
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	Answer      string `json:"answer"`
	SessionID   string `json:"session_id,omitempty"`
	ContextUsed string `json:"context_used,omitempty"`
}

type healthResponse struct {
	Status       string   `json:"status"`
	Formats      []string `json:"formats"`
	OCRAvailable bool     `json:"ocr_available"`
}

// Health reports static status and extraction capabilities. Session state
// is process memory only; a healthy response says nothing about sessions
// surviving a restart.
func (h *Handler) Health(c echo.Context) error {
	caps := extractor.Caps()
	return c.JSON(http.StatusOK, healthResponse{
		Status:       "ok",
		Formats:      caps.Formats,
		OCRAvailable: caps.OCRAvailable,
	})
}

func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := h.svc.Upload(c.Request().Context(), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrExtractionFailed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, rag.ErrUpstream):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return err
		}
	}
	return c.JSON(http.StatusOK, uploadResponse{
		SessionID: res.SessionID,
		Summary:   res.Summary,
	})
}

func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing question")
	}

	res, err := h.svc.Ask(c.Request().Context(), req.SessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession):
			// Informational, not an error: nothing has been uploaded yet.
			return c.JSON(http.StatusOK, askResponse{Answer: models.NoDocumentMessage})
		case errors.Is(err, session.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		default:
			return err
		}
	}
	return c.JSON(http.StatusOK, askResponse{
		Answer:      res.Answer,
		SessionID:   res.SessionID,
		ContextUsed: res.ContextUsed,
	})
}
