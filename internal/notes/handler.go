package notes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"notes-backend/internal/assist"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/storage/object"
)

// Resummarizer regenerates a stored note's summary and title.
type Resummarizer interface {
	Resummarize(ctx context.Context, userID, noteID string) (Note, error)
}

// AudioVerifier checks a local signed audio link.
type AudioVerifier interface {
	Verify(key, expires, sig string, now time.Time) error
}

// ParticipantResolver names the caller when a note lists no participants.
type ParticipantResolver interface {
	ParticipantName(ctx context.Context, userID, tokenEmail string) string
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc          *Service
	Resummarizer Resummarizer
	Audio        AudioVerifier
	Participants ParticipantResolver
}

// NewHandler constructs a Handler. Everything but svc may be nil.
func NewHandler(svc *Service, resummarizer Resummarizer, audio AudioVerifier, participants ParticipantResolver) *Handler {
	return &Handler{Svc: svc, Resummarizer: resummarizer, Audio: audio, Participants: participants}
}

// RegisterRoutes attaches note routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notes", h.list)
	rg.POST("/notes", h.createManual)
	rg.GET("/notes/:id", h.get)
	rg.PATCH("/notes/:id", h.update)
	rg.DELETE("/notes/:id", h.delete)
	rg.POST("/notes/:id/summary", h.resummarize)
	rg.GET("/notes/:id/questions", h.listQuestions)
	rg.POST("/notes/:id/questions", h.ask)
	rg.GET("/notes/:id/export", h.export)
	if h.Audio != nil {
		rg.GET("/audio/*key", h.audio)
	}
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	list, err := h.Svc.List(c.Request.Context(), userID, h.participant(c))
	if err != nil {
		writeError(c, err, "failed to list notes")
		return
	}
	resp := make([]NoteResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, ToResponse(n))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type createManualRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) createManual(c *gin.Context) {
	var req createManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	note, err := h.Svc.CreateManual(c.Request.Context(), middleware.UserIDFromContext(c), req.Title, req.Content)
	if err != nil {
		writeError(c, err, "failed to save note")
		return
	}
	respond.JSON(c, http.StatusCreated, ToResponse(note))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	note, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id, h.participant(c))
	if err != nil {
		writeError(c, err, "failed to fetch note")
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(note))
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Transcript  *string `json:"transcript"`
	Summary     *string `json:"summary"`
	ClearAudio  bool    `json:"clearAudio"`
}

func (h *Handler) update(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	note, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), id, Patch{
		Title:       req.Title,
		Description: req.Description,
		Transcript:  req.Transcript,
		Summary:     req.Summary,
		ClearAudio:  req.ClearAudio,
	})
	if err != nil {
		writeError(c, err, "failed to update note")
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(note))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to delete note")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) resummarize(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	if h.Resummarizer == nil {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "summarization is not configured", nil)
		return
	}
	note, err := h.Resummarizer.Resummarize(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to summarize note")
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(note))
}

func (h *Handler) listQuestions(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	list, err := h.Svc.ListQuestions(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to list questions")
		return
	}
	resp := make([]QAResponse, 0, len(list))
	for _, qa := range list {
		resp = append(resp, toQAResponse(qa))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	qa, err := h.Svc.Ask(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Question)
	if err != nil {
		writeError(c, err, "failed to answer question")
		return
	}
	respond.JSON(c, http.StatusCreated, toQAResponse(qa))
}

func (h *Handler) export(c *gin.Context) {
	id, ok := noteID(c)
	if !ok {
		return
	}
	file, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), id,
		h.participant(c), c.DefaultQuery("format", FormatText))
	if err != nil {
		writeError(c, err, "failed to export note")
		return
	}
	respond.Attachment(c, file.Name, file.ContentType, file.Body)
}

func (h *Handler) audio(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := h.Audio.Verify(key, c.Query("expires"), c.Query("sig"), h.Svc.now()); err != nil {
		respond.Error(c, http.StatusForbidden, "forbidden", "invalid or expired link", nil)
		return
	}
	rc, err := h.Svc.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrObjectNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "audio not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open audio", nil)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", object.AudioContentType)
	c.Header("Cache-Control", "private, max-age="+strconv.Itoa(300))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) participant(c *gin.Context) string {
	email := middleware.UserEmailFromContext(c)
	if h.Participants == nil {
		return email
	}
	return h.Participants.ParticipantName(c.Request.Context(), middleware.UserIDFromContext(c), email)
}

func writeError(c *gin.Context, err error, fallback string) {
	var (
		storeErr *StoreError
		qaErr    *assist.QAError
		sumErr   *assist.SummaryError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "note not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNoTranscript):
		respond.Error(c, http.StatusUnprocessableEntity, "no_transcript", "No transcript available for this note", nil)
	case errors.As(err, &qaErr):
		respond.Error(c, http.StatusBadGateway, "qa_failed", qaErr.Message, nil)
	case errors.As(err, &sumErr):
		respond.Error(c, http.StatusBadGateway, "summary_failed", sumErr.Message, nil)
	case errors.As(err, &storeErr):
		respond.Error(c, http.StatusInternalServerError, "store_error", fallback, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

// noteID tags the request log with the path id. Note ids are UUIDs, so
// anything else is answered with 404 before it reaches the repository.
func noteID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	c.Set("noteId", id)
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "note not found", nil)
		return "", false
	}
	return id, true
}
