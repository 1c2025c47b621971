package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/api/middleware"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// TaskHandler handles task definition HTTP requests
type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), &service.CreateTaskInput{
		EventID:               req.EventID,
		RoleID:                req.RoleID,
		Title:                 req.Title,
		Description:           req.Description,
		AssignmentType:        req.AssignmentType,
		TaskType:              req.TaskType,
		VerificationType:      req.VerificationType,
		Mandatory:             req.Mandatory,
		Deadline:              req.Deadline,
		SendReminders:         req.SendReminders,
		ReminderFrequencyDays: req.ReminderFrequencyDays,
		MinWords:              req.MinWords,
		MaxWords:              req.MaxWords,
		Prerequisites:         req.Prerequisites,
		CreatedBy:             &userID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) List(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	tasks, err := h.taskService.ListTasks(c.Request.Context(), activeOnly)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, toTaskResponse(t))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), &service.UpdateTaskInput{
		Title:                 req.Title,
		Description:           req.Description,
		Mandatory:             req.Mandatory,
		Deadline:              req.Deadline,
		SendReminders:         req.SendReminders,
		ReminderFrequencyDays: req.ReminderFrequencyDays,
		MinWords:              req.MinWords,
		MaxWords:              req.MaxWords,
		Prerequisites:         req.Prerequisites,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Deactivate(c *gin.Context) {
	if err := h.taskService.DeactivateTask(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deactivated"})
}

// MyTasks returns the authenticated volunteer's worklist in prerequisite
// order, with progress and blocked markers
func (h *TaskHandler) MyTasks(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.taskService.EnsureInstances(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	resolved, err := h.taskService.ApplicableTasks(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.WorklistItemResponse, 0, len(resolved))
	for _, r := range resolved {
		responses = append(responses, toWorklistItemResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}
