// internal/api/handlers.go
package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/session"
	"github.com/Reflectix/CounselLab/internal/storage"
)

// Handler serves the REST API.
type Handler struct {
	ScenarioService *services.ScenarioService
	ResponseService *services.ResponseService
	ProgressService *services.ProgressService
	UserService     *services.UserService
	StatsService    *services.StatsService
	MediaService    *services.MediaService
	Sessions        *session.Manager
	Response        *ResponseHelper
}

// NewHandler creates the API handler over its services.
func NewHandler(
	scenarioService *services.ScenarioService,
	responseService *services.ResponseService,
	progressService *services.ProgressService,
	userService *services.UserService,
	statsService *services.StatsService,
	mediaService *services.MediaService,
	sessions *session.Manager,
) *Handler {
	return &Handler{
		ScenarioService: scenarioService,
		ResponseService: responseService,
		ProgressService: progressService,
		UserService:     userService,
		StatsService:    statsService,
		MediaService:    mediaService,
		Sessions:        sessions,
		Response:        NewResponseHelper(),
	}
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the standard error payload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ========================================
// Scenarios
// ========================================

// SegmentRequest is one segment in a scenario create/update payload.
type SegmentRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	StartTime         float64  `json:"start_time"`
	EndTime           *float64 `json:"end_time"`
	PausePoint        bool     `json:"pause_point"`
	ExpertResponseURL string   `json:"expert_response_url"`
}

// CreateScenarioRequest creates a scenario together with its segments.
type CreateScenarioRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Difficulty   string           `json:"difficulty"`
	Duration     float64          `json:"duration"`
	ThumbnailURL string           `json:"thumbnail_url"`
	VideoURL     string           `json:"video_url"`
	Category     string           `json:"category"`
	Segments     []SegmentRequest `json:"segments"`
}

// GetScenarios lists scenario metadata, newest first.
func (h *Handler) GetScenarios(c *gin.Context) {
	list, err := h.ScenarioService.ListScenarios()
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, list)
}

// GetScenario returns one scenario with its segments.
func (h *Handler) GetScenario(c *gin.Context) {
	id := c.Param("id")

	scenario, err := h.ScenarioService.GetScenario(id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	segments, err := h.ScenarioService.ListSegments(id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	h.Response.Success(c, gin.H{
		"scenario": scenario,
		"segments": segments,
	})
}

// CreateScenario creates a scenario and its segments in one request.
// Segment writes that fail roll the whole scenario back.
func (h *Handler) CreateScenario(c *gin.Context) {
	var req CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid scenario payload", err.Error())
		return
	}

	userID, _ := GetUserFromContext(c)
	scenario := &models.Scenario{
		Title:        req.Title,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		Duration:     req.Duration,
		ThumbnailURL: req.ThumbnailURL,
		VideoURL:     req.VideoURL,
		Category:     req.Category,
		CreatedBy:    userID,
	}

	segments := make([]models.Segment, 0, len(req.Segments))
	for _, sr := range req.Segments {
		segments = append(segments, models.Segment{
			Title:             sr.Title,
			Description:       sr.Description,
			StartTime:         sr.StartTime,
			EndTime:           sr.EndTime,
			PausePoint:        sr.PausePoint,
			ExpertResponseURL: sr.ExpertResponseURL,
		})
	}

	created, err := h.ScenarioService.CreateWithSegments(scenario, segments)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	h.Response.Created(c, created, "scenario created")
}

// UpdateScenario updates scenario attributes.
func (h *Handler) UpdateScenario(c *gin.Context) {
	id := c.Param("id")

	scenario, err := h.ScenarioService.GetScenario(id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	var req CreateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid scenario payload", err.Error())
		return
	}

	if req.Title != "" {
		scenario.Title = req.Title
	}
	if req.Description != "" {
		scenario.Description = req.Description
	}
	if req.Difficulty != "" {
		scenario.Difficulty = req.Difficulty
	}
	if req.Duration > 0 {
		scenario.Duration = req.Duration
	}
	if req.ThumbnailURL != "" {
		scenario.ThumbnailURL = req.ThumbnailURL
	}
	if req.VideoURL != "" {
		scenario.VideoURL = req.VideoURL
	}
	if req.Category != "" {
		scenario.Category = req.Category
	}

	if err := h.ScenarioService.UpdateScenario(scenario); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, scenario, "scenario updated")
}

// DeleteScenario removes a scenario and its segments.
func (h *Handler) DeleteScenario(c *gin.Context) {
	if err := h.ScenarioService.DeleteScenario(c.Param("id")); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, nil, "scenario deleted")
}

// GetSegments lists a scenario's segments sorted by start time.
func (h *Handler) GetSegments(c *gin.Context) {
	segments, err := h.ScenarioService.ListSegments(c.Param("id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, segments)
}

// ========================================
// Practice sessions
// ========================================

// CreateSessionRequest starts a practice session on a scenario.
type CreateSessionRequest struct {
	ScenarioID string `json:"scenario_id" binding:"required"`
}

// CreateSession starts a practice session for the authenticated user.
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "scenario_id is required", err.Error())
		return
	}

	userID, _ := GetUserFromContext(c)
	s, err := h.Sessions.Create(userID, req.ScenarioID)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	h.Response.Created(c, s.Snapshot(), "session created")
}

// sessionForRequest loads the session addressed by the route and
// enforces ownership: a session is driven by the user who created it,
// a supervisor may observe or close anyone's. Responses are written on
// failure, so callers just bail out.
func (h *Handler) sessionForRequest(c *gin.Context) (*session.Session, bool) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return nil, false
	}

	userID, _ := GetUserFromContext(c)
	if s.UserID != userID && GetRoleFromContext(c) != models.RoleSupervisor {
		h.Response.Forbidden(c, "access denied: session belongs to another user")
		return nil, false
	}
	return s, true
}

// GetSession returns the current session snapshot.
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}
	h.Response.Success(c, s.Snapshot())
}

// CloseSession tears a session down, releasing any capture tracks.
func (h *Handler) CloseSession(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}
	if err := h.Sessions.Close(s.ID); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, nil, "session closed")
}

// SessionEventRequest is one playback or capture event delivered over
// REST. The same events flow over the session WebSocket; REST exists
// for clients without a socket.
type SessionEventRequest struct {
	Type     string   `json:"type" binding:"required"`
	Position *float64 `json:"position"` // time_update, seek
	Duration *float64 `json:"duration"` // loaded_metadata
	Delta    *float64 `json:"delta"`    // skip
	Index    *int     `json:"index"`    // select_segment
	Kind     string   `json:"kind"`     // start_recording
	Granted  *bool    `json:"granted"`  // device_permission
	Notes    string   `json:"notes"`    // save
}

// SessionEvent applies one event to a session and returns the
// resulting snapshot.
func (h *Handler) SessionEvent(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	var req SessionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid session event", err.Error())
		return
	}

	if err := applySessionEvent(s, &req); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, s.Snapshot())
}

func applySessionEvent(s *session.Session, req *SessionEventRequest) error {
	switch req.Type {
	case "time_update":
		if req.Position == nil {
			return errMissingField("position")
		}
		return s.TimeUpdate(*req.Position)
	case "loaded_metadata":
		if req.Duration == nil {
			return errMissingField("duration")
		}
		return s.LoadedMetadata(*req.Duration)
	case "seek":
		if req.Position == nil {
			return errMissingField("position")
		}
		return s.Seek(*req.Position)
	case "skip":
		if req.Delta == nil {
			return errMissingField("delta")
		}
		return s.Skip(*req.Delta)
	case "select_segment":
		if req.Index == nil {
			return errMissingField("index")
		}
		return s.SelectSegment(*req.Index)
	case "toggle_play":
		return s.TogglePlay()
	case "device_permission":
		if req.Granted == nil {
			return errMissingField("granted")
		}
		return s.SetDevicePermission(*req.Granted)
	case "start_recording":
		kind := req.Kind
		if kind == "" {
			kind = models.RecordingKindVideo
		}
		return s.StartRecording(kind)
	case "stop_recording":
		_, err := s.StopRecording()
		return err
	case "discard":
		return s.DiscardRecording()
	case "save":
		_, err := s.SaveRecording(req.Notes)
		return err
	case "skip_response":
		return s.SkipResponse()
	default:
		return errUnknownEvent(req.Type)
	}
}

func errMissingField(field string) error {
	return apperrors.NewValidationError(field+" is required for this event", nil)
}

func errUnknownEvent(eventType string) error {
	return apperrors.NewValidationError("unknown session event type: "+eventType, nil)
}

// SaveSessionRecording persists the previewed clip and returns the
// created response record alongside the new snapshot.
func (h *Handler) SaveSessionRecording(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// Body is optional for saves without notes.
	_ = c.ShouldBindJSON(&req)

	resp, err := s.SaveRecording(req.Notes)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	h.Response.Created(c, gin.H{
		"response": resp,
		"state":    s.Snapshot(),
	}, "response saved")
}

// PushSessionChunk appends one recorded chunk to the session's active
// capture. The request body is the raw encoded chunk.
func (h *Handler) PushSessionChunk(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, storage.MaxObjectSize+1))
	if err != nil {
		h.Response.BadRequest(c, "failed to read chunk body", err.Error())
		return
	}
	if len(data) > storage.MaxObjectSize {
		h.Response.Error(c, http.StatusRequestEntityTooLarge, ErrorFileTooLarge, "chunk exceeds the maximum object size")
		return
	}

	if err := s.PushChunk(data); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, nil)
}

// ========================================
// Stored objects
// ========================================

// GetStoredObject serves an object from blob storage. Public locators
// returned by uploads resolve here.
func (h *Handler) GetStoredObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	data, err := h.MediaService.GetObject(bucket, key)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	h.Response.FileResponse(c, data, contentTypeForKey(key))
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".webm"):
		return "video/webm"
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"live_sessions": h.Sessions.Count(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}
