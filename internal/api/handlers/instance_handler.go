package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/api/middleware"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// InstanceHandler handles task instance HTTP requests
type InstanceHandler struct {
	instanceService service.InstanceService
}

func NewInstanceHandler(instanceService service.InstanceService) *InstanceHandler {
	return &InstanceHandler{instanceService: instanceService}
}

func (h *InstanceHandler) Get(c *gin.Context) {
	instance, err := h.instanceService.GetInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstanceResponse(instance))
}

// SaveProgress records partial work on an instance
func (h *InstanceHandler) SaveProgress(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := h.instanceService.SaveProgress(c.Request.Context(), c.Param("id"), userID, &service.ProgressInput{
		Checked:       req.Checked,
		TextResponse:  req.TextResponse,
		PhotoURL:      req.PhotoURL,
		PhotoSize:     req.PhotoSize,
		PhotoMimeType: req.PhotoMimeType,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstanceResponse(instance))
}

// Submit submits an instance for verification
func (h *InstanceHandler) Submit(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &service.SubmitInput{
		Checked:       req.Checked,
		TextResponse:  req.TextResponse,
		PhotoURL:      req.PhotoURL,
		PhotoSize:     req.PhotoSize,
		PhotoMimeType: req.PhotoMimeType,
	}
	if req.AdminOverride {
		input.OverrideBy = &userID
	}

	instance, err := h.instanceService.Submit(c.Request.Context(), c.Param("id"), userID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstanceResponse(instance))
}

// Review records a reviewer decision on a submitted instance
func (h *InstanceHandler) Review(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := h.instanceService.Review(c.Request.Context(), c.Param("id"), userID, req.Approve, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInstanceResponse(instance))
}

// MyInstances lists the authenticated volunteer's instances
func (h *InstanceHandler) MyInstances(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	instances, err := h.instanceService.ListByVolunteer(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.TaskInstanceResponse, 0, len(instances))
	for _, i := range instances {
		responses = append(responses, toInstanceResponse(i))
	}
	c.JSON(http.StatusOK, responses)
}

// PendingReview lists instances awaiting a reviewer decision
func (h *InstanceHandler) PendingReview(c *gin.Context) {
	instances, err := h.instanceService.ListPendingReview(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.TaskInstanceResponse, 0, len(instances))
	for _, i := range instances {
		responses = append(responses, toInstanceResponse(i))
	}
	c.JSON(http.StatusOK, responses)
}
