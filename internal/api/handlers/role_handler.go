package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/api/middleware"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// RoleHandler handles role and assignment HTTP requests
type RoleHandler struct {
	roleService service.RoleService
	taskService service.TaskService
}

func NewRoleHandler(roleService service.RoleService, taskService service.TaskService) *RoleHandler {
	return &RoleHandler{roleService: roleService, taskService: taskService}
}

// ============================================
// ROLE CRUD
// ============================================

func (h *RoleHandler) Create(c *gin.Context) {
	eventID := c.Param("id")

	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), &service.CreateRoleInput{
		EventID:             eventID,
		Name:                req.Name,
		Description:         req.Description,
		TotalPositions:      req.TotalPositions,
		MinimumVolunteers:   req.MinimumVolunteers,
		RequiredCredentials: req.RequiredCredentials,
		RequiredTraining:    req.RequiredTraining,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRoleResponse(role))
}

func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("roleId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoleResponse(role))
}

func (h *RoleHandler) ListByEvent(c *gin.Context) {
	roles, err := h.roleService.ListRolesByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.RoleResponse, 0, len(roles))
	for _, r := range roles {
		responses = append(responses, toRoleResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *RoleHandler) Update(c *gin.Context) {
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), c.Param("roleId"), &service.UpdateRoleInput{
		Name:                req.Name,
		Description:         req.Description,
		TotalPositions:      req.TotalPositions,
		MinimumVolunteers:   req.MinimumVolunteers,
		RequiredCredentials: req.RequiredCredentials,
		RequiredTraining:    req.RequiredTraining,
		Status:              req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoleResponse(role))
}

func (h *RoleHandler) Close(c *gin.Context) {
	if err := h.roleService.CloseRole(c.Request.Context(), c.Param("roleId")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role closed"})
}

// ============================================
// ASSIGNMENTS
// ============================================

// Reserve claims a position for the authenticated volunteer
func (h *RoleHandler) Reserve(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	assignment, err := h.roleService.Reserve(c.Request.Context(), c.Param("roleId"), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAssignmentResponse(assignment))
}

// Confirm confirms a pending assignment and provisions the volunteer's
// onboarding task instances
func (h *RoleHandler) Confirm(c *gin.Context) {
	assignment, err := h.roleService.Confirm(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if err := h.taskService.EnsureInstances(c.Request.Context(), assignment.VolunteerID); err != nil {
		log.Printf("[Role] failed to provision task instances for %s: %v", assignment.VolunteerID, err)
	}

	c.JSON(http.StatusOK, toAssignmentResponse(assignment))
}

// Release withdraws an assignment and frees its position
func (h *RoleHandler) Release(c *gin.Context) {
	if err := h.roleService.Release(c.Request.Context(), c.Param("assignmentId")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment withdrawn"})
}

// MyAssignments lists the authenticated volunteer's assignments
func (h *RoleHandler) MyAssignments(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	assignments, err := h.roleService.ListAssignmentsByVolunteer(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, toAssignmentResponse(a))
	}
	c.JSON(http.StatusOK, responses)
}

// ListByRole lists assignments for a role (staff view)
func (h *RoleHandler) ListByRole(c *gin.Context) {
	assignments, err := h.roleService.ListAssignmentsByRole(c.Request.Context(), c.Param("roleId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, toAssignmentResponse(a))
	}
	c.JSON(http.StatusOK, responses)
}
