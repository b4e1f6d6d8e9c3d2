package recordings

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/capture"
	"notes-backend/internal/notes"
	"notes-backend/internal/pipeline"
	"notes-backend/internal/queue"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/storage/object"
	"notes-backend/internal/shared/telemetry"
)

const maxChunkSize = 16 << 20 // 16MB

// Processor runs a stopped recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, job pipeline.Job, observe pipeline.Observer) (notes.Note, error)
}

// ParticipantResolver names the user recorded as a note's participant.
type ParticipantResolver interface {
	ParticipantName(ctx context.Context, userID, tokenEmail string) string
}

// Handler exposes capture sessions over HTTP.
type Handler struct {
	Manager      *capture.Manager
	Tracker      *Tracker
	Processor    Processor
	Queue        queue.Client
	Store        object.ObjectStore
	Participants ParticipantResolver
}

// NewHandler constructs a Handler. With a non-nil queue, stopped recordings
// are uploaded and handed to the worker instead of processed inline.
func NewHandler(manager *capture.Manager, tracker *Tracker, processor Processor, q queue.Client, store object.ObjectStore) *Handler {
	return &Handler{Manager: manager, Tracker: tracker, Processor: processor, Queue: q, Store: store}
}

// RegisterRoutes attaches recording routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recordings", h.start)
	rg.GET("/recordings/:id", h.get)
	rg.POST("/recordings/:id/chunks", h.appendChunk)
	rg.POST("/recordings/:id/pause", h.pause)
	rg.POST("/recordings/:id/resume", h.resume)
	rg.POST("/recordings/:id/stop", h.stop)
	rg.POST("/recordings/:id/abort", h.abort)
}

type startRequest struct {
	Source            string `json:"source"`
	PermissionGranted bool   `json:"permissionGranted"`
	Reason            string `json:"reason"`
	MeetingTitle      string `json:"meetingTitle"`
}

type stateResponse struct {
	RecordingID    string               `json:"recordingId"`
	Source         capture.Source       `json:"source"`
	State          pipeline.State       `json:"state"`
	Affordances    pipeline.Affordances `json:"affordances"`
	ElapsedSeconds int                  `json:"elapsedSeconds"`
	Constraints    *capture.Constraints `json:"constraints,omitempty"`
	Queued         bool                 `json:"queued,omitempty"`
	Note           *notes.NoteResponse  `json:"note,omitempty"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	src, err := capture.ParseSource(req.Source)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	session, constraints, err := h.Manager.Start(c.Request.Context(), capture.StartRequest{
		OwnerID: userID,
		Source:  src,
		Device:  capture.ClientGrant{Granted: req.PermissionGranted, Reason: req.Reason},
	})
	if err != nil {
		var permErr *capture.PermissionError
		switch {
		case errors.As(err, &permErr):
			respond.Error(c, http.StatusForbidden, "permission_denied", permErr.Error(), nil)
		case errors.Is(err, capture.ErrRecordingInProgress):
			respond.Error(c, http.StatusConflict, "recording_in_progress", "a recording is already in progress", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start recording", nil)
		}
		return
	}

	h.Tracker.Add(Entry{ID: session.ID(), OwnerID: userID, Source: src, MeetingTitle: req.MeetingTitle, Session: session})
	telemetry.Info("recordings.started", map[string]any{"recording_id": session.ID(), "user_id": userID, "source": string(src)})

	entry, _ := h.Tracker.Get(session.ID(), userID)
	resp := toStateResponse(entry)
	resp.Constraints = &constraints
	respond.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("recordingId", c.Param("id"))
	entry, ok := h.Tracker.Get(c.Param("id"), middleware.UserIDFromContext(c))
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toStateResponse(entry))
}

func (h *Handler) appendChunk(c *gin.Context) {
	entry, session, ok := h.live(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxChunkSize))
	if err != nil {
		respond.Error(c, http.StatusRequestEntityTooLarge, "chunk_too_large", "chunk exceeds size limit", nil)
		return
	}
	accepted, err := session.Append(body)
	if err != nil {
		respond.Error(c, http.StatusConflict, "recording_closed", "recording is no longer active", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"recordingId":   entry.ID,
		"accepted":      accepted,
		"bufferedBytes": session.BufferedBytes(),
	})
}

func (h *Handler) pause(c *gin.Context) {
	entry, session, ok := h.live(c)
	if !ok {
		return
	}
	if session.Pause() {
		h.Tracker.Set(entry.ID, pipeline.Recording(true))
	}
	h.writeState(c, entry.ID, entry.OwnerID)
}

func (h *Handler) resume(c *gin.Context) {
	entry, session, ok := h.live(c)
	if !ok {
		return
	}
	if session.Resume() {
		h.Tracker.Set(entry.ID, pipeline.Recording(false))
	}
	h.writeState(c, entry.ID, entry.OwnerID)
}

func (h *Handler) abort(c *gin.Context) {
	entry, session, ok := h.live(c)
	if !ok {
		return
	}
	elapsed := session.Elapsed()
	session.Abort()
	h.Tracker.Finish(entry.ID, elapsed)
	h.Tracker.Set(entry.ID, pipeline.Idle())
	telemetry.Info("recordings.aborted", map[string]any{"recording_id": entry.ID})
	h.writeState(c, entry.ID, entry.OwnerID)
}

type stopRequest struct {
	MeetingTitle *string `json:"meetingTitle"`
}

func (h *Handler) stop(c *gin.Context) {
	entry, session, ok := h.live(c)
	if !ok {
		return
	}
	var req stopRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	meetingTitle := entry.MeetingTitle
	if req.MeetingTitle != nil {
		meetingTitle = *req.MeetingTitle
	}

	rec, err := session.Stop()
	if err != nil {
		respond.Error(c, http.StatusConflict, "recording_closed", "recording is no longer active", nil)
		return
	}
	h.Tracker.Finish(entry.ID, rec.Duration)

	job := pipeline.Job{
		RecordingID:     rec.ID,
		OwnerID:         rec.OwnerID,
		Participant:     h.participant(c, rec.OwnerID),
		Source:          rec.Source,
		DurationSeconds: rec.Duration,
		MeetingTitle:    meetingTitle,
		FileName:        "recording.webm",
		Audio:           bytes.NewReader(rec.Blob),
	}

	if h.Queue != nil {
		h.enqueue(c, entry, rec, job)
		return
	}

	note, err := h.Processor.Process(c.Request.Context(), job, h.Tracker.Observer(entry.ID))
	if err != nil {
		final, _ := h.Tracker.Get(entry.ID, entry.OwnerID)
		tagTransition(c, entry.State, final.State)
		respond.Error(c, http.StatusBadGateway, "processing_failed", final.State.Reason, toStateResponse(final))
		return
	}
	final, _ := h.Tracker.Get(entry.ID, entry.OwnerID)
	tagTransition(c, entry.State, final.State)
	resp := toStateResponse(final)
	nr := notes.ToResponse(note)
	resp.Note = &nr
	respond.JSON(c, http.StatusCreated, resp)
}

// enqueue uploads the audio and hands the job to the worker. The worker
// runs in another process, so the recording ends here in the Queued state;
// the resulting note shows up in the notes list once it is persisted.
func (h *Handler) enqueue(c *gin.Context, entry Entry, rec capture.Recording, job pipeline.Job) {
	ctx := c.Request.Context()

	key, err := object.AudioKey(rec.OwnerID, rec.ID)
	if err == nil {
		_, err = h.Store.Put(ctx, key, rec.ContentType, job.Audio)
	}
	if err == nil {
		err = h.Queue.Send(ctx, queue.Message{
			RecordingID:     rec.ID,
			UserID:          rec.OwnerID,
			Source:          string(rec.Source),
			DurationSeconds: rec.Duration,
			AudioPath:       key,
			MeetingTitle:    job.MeetingTitle,
			Participant:     job.Participant,
			RequestID:       middleware.RequestIDFromContext(c),
			EnqueuedAt:      time.Now().UTC().Format(time.RFC3339),
			Version:         queue.MessageVersion,
		})
		if err != nil {
			_ = h.Store.Delete(context.WithoutCancel(ctx), key)
		}
	}
	if err != nil {
		telemetry.Error("recordings.enqueue_failed", map[string]any{"recording_id": rec.ID, "error": err.Error()})
		h.Tracker.Set(entry.ID, pipeline.Failed("Failed to queue recording"))
		final, _ := h.Tracker.Get(entry.ID, entry.OwnerID)
		tagTransition(c, entry.State, final.State)
		respond.Error(c, http.StatusInternalServerError, "enqueue_failed", "Failed to queue recording", toStateResponse(final))
		return
	}

	h.Tracker.Set(entry.ID, pipeline.Queued())
	final, _ := h.Tracker.Get(entry.ID, entry.OwnerID)
	tagTransition(c, entry.State, final.State)
	resp := toStateResponse(final)
	resp.Queued = true
	respond.JSON(c, http.StatusAccepted, resp)
}

func (h *Handler) participant(c *gin.Context, userID string) string {
	email := middleware.UserEmailFromContext(c)
	if h.Participants == nil {
		return email
	}
	return h.Participants.ParticipantName(c.Request.Context(), userID, email)
}

// live resolves the recording and its open session for the caller.
func (h *Handler) live(c *gin.Context) (Entry, *capture.Session, bool) {
	userID := middleware.UserIDFromContext(c)
	c.Set("recordingId", c.Param("id"))
	entry, ok := h.Tracker.Get(c.Param("id"), userID)
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
		return Entry{}, nil, false
	}
	session, err := h.Manager.Get(entry.ID)
	if err != nil {
		respond.Error(c, http.StatusConflict, "recording_closed", "recording is no longer active", toStateResponse(entry))
		return Entry{}, nil, false
	}
	return entry, session, true
}

func (h *Handler) writeState(c *gin.Context, id, ownerID string) {
	entry, _ := h.Tracker.Get(id, ownerID)
	respond.JSON(c, http.StatusOK, toStateResponse(entry))
}

func toStateResponse(e Entry) stateResponse {
	return stateResponse{
		RecordingID:    e.ID,
		Source:         e.Source,
		State:          e.State,
		Affordances:    e.State.Affordances(),
		ElapsedSeconds: e.Elapsed(),
	}
}

func tagTransition(c *gin.Context, from, to pipeline.State) {
	c.Set("statusTransition", from.String()+"->"+to.String())
}
