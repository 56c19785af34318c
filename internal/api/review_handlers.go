// internal/api/review_handlers.go
package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/storage"
)

// ========================================
// Responses and supervisor review
// ========================================

// GetResponses lists recorded responses, filterable by user, scenario,
// segment and review status.
func (h *Handler) GetResponses(c *gin.Context) {
	filter := services.ResponseFilter{
		UserID:       c.Query("user_id"),
		ScenarioID:   c.Query("scenario_id"),
		SegmentID:    c.Query("segment_id"),
		OnlyPending:  c.Query("pending") == "true",
		OnlyReviewed: c.Query("reviewed") == "true",
	}

	// Students only see their own responses; supervisors see everyone's.
	if GetRoleFromContext(c) != models.RoleSupervisor {
		userID, _ := GetUserFromContext(c)
		filter.UserID = userID
	}

	responses, err := h.ResponseService.List(filter)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, responses)
}

// GetResponse returns one recorded response.
func (h *Handler) GetResponse(c *gin.Context) {
	resp, err := h.ResponseService.Get(c.Param("id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	if GetRoleFromContext(c) != models.RoleSupervisor {
		userID, _ := GetUserFromContext(c)
		if resp.UserID != userID {
			h.Response.Forbidden(c, "cannot access other users' responses")
			return
		}
	}

	h.Response.Success(c, resp)
}

// ReviewRequest carries a supervisor's structured review.
type ReviewRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Feedback string `json:"feedback" binding:"required"`
}

// ReviewResponse records a supervisor's rating and feedback on a
// response. Supervisor role is enforced by the route group.
func (h *Handler) ReviewResponse(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "rating and feedback are required", err.Error())
		return
	}

	reviewerID, _ := GetUserFromContext(c)
	resp, err := h.ResponseService.Review(c.Param("id"), reviewerID, req.Rating, req.Feedback)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, resp, "review recorded")
}

// ========================================
// Progress
// ========================================

// GetUserProgress lists one user's progress across scenarios.
func (h *Handler) GetUserProgress(c *gin.Context) {
	progress, err := h.ProgressService.ListByUser(c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, progress)
}

// GetScenarioProgress returns one user's progress on one scenario,
// null when the user has not started it.
func (h *Handler) GetScenarioProgress(c *gin.Context) {
	progress, err := h.ProgressService.Get(c.Param("user_id"), c.Param("scenario_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, progress)
}

// ========================================
// Stats
// ========================================

// GetDashboardStats returns the aggregate dashboard view.
func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.StatsService.Dashboard()
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, stats)
}

// ========================================
// Users
// ========================================

// GetUserProfile returns a user profile.
func (h *Handler) GetUserProfile(c *gin.Context) {
	user, err := h.UserService.GetUser(c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, user)
}

// SetUserRoleRequest changes a user's role.
type SetUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetUserRole changes a user's role. Supervisor only.
func (h *Handler) SetUserRole(c *gin.Context) {
	var req SetUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "role is required", err.Error())
		return
	}

	user, err := h.UserService.SetRole(c.Param("user_id"), req.Role)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, user, "role updated")
}

// LoginRequest identifies a user for token issue. Identity federation
// sits in front of this service in production; the endpoint trusts
// the caller's asserted identity.
type LoginRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// IssueToken ensures the user profile exists and returns a signed
// token carrying the user's role.
func (h *Handler) IssueToken(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "user_id is required", err.Error())
		return
	}

	user, err := h.UserService.EnsureUser(req.UserID, req.Email, req.FullName)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}

	token, err := GenerateUserToken(user.ID, user.Role)
	if err != nil {
		h.Response.InternalError(c, "failed to issue token", err.Error())
		return
	}

	h.Response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// ========================================
// Media uploads
// ========================================

// UploadScenarioVideo stores a scenario source video and returns its
// public locator.
func (h *Handler) UploadScenarioVideo(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	locator, err := h.MediaService.UploadScenarioVideo(filename, data)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, gin.H{"url": locator}, "video uploaded")
}

// UploadThumbnail stores a scenario thumbnail.
func (h *Handler) UploadThumbnail(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	locator, err := h.MediaService.UploadThumbnail(filename, data)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, gin.H{"url": locator}, "thumbnail uploaded")
}

// UploadExpertResponse stores an expert reference clip for a segment.
func (h *Handler) UploadExpertResponse(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	locator, err := h.MediaService.UploadExpertResponse(c.Param("segment_id"), filename, data)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, gin.H{"url": locator}, "expert response uploaded")
}

// readUpload extracts the multipart file from an upload request,
// enforcing the maximum object size.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		h.Response.BadRequest(c, "missing file field", err.Error())
		return "", nil, false
	}
	if file.Size > storage.MaxObjectSize {
		h.Response.Error(c, http.StatusRequestEntityTooLarge, ErrorFileTooLarge, "file exceeds the maximum object size")
		return "", nil, false
	}

	f, err := file.Open()
	if err != nil {
		h.Response.InternalError(c, "failed to open upload", err.Error())
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.Response.InternalError(c, "failed to read upload", err.Error())
		return "", nil, false
	}
	return file.Filename, data, true
}
