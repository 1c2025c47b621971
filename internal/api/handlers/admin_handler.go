package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/membership"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/service"
	"github.com/soihub/soi-hub-backend/internal/theme"
)

// AdminHandler handles dashboard, membership register, theme and system
// config HTTP requests
type AdminHandler struct {
	dashboardService service.DashboardService
	reminderService  service.ReminderService
	membership       *membership.Client
	configRepo       repository.ConfigRepository
}

func NewAdminHandler(
	dashboardService service.DashboardService,
	reminderService service.ReminderService,
	membershipClient *membership.Client,
	configRepo repository.ConfigRepository,
) *AdminHandler {
	return &AdminHandler{
		dashboardService: dashboardService,
		reminderService:  reminderService,
		membership:       membershipClient,
		configRepo:       configRepo,
	}
}

// ============================================
// DASHBOARD
// ============================================

func (h *AdminHandler) EventDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.EventDashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// TriggerReminders runs a reminder pass outside the schedule
func (h *AdminHandler) TriggerReminders(c *gin.Context) {
	sent, failed, err := h.reminderService.RunPass(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

// ============================================
// MEMBERSHIP REGISTER
// ============================================

func (h *AdminHandler) LookupMember(c *gin.Context) {
	member, err := h.membership.LookupMember(c.Request.Context(), c.Param("memberId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *AdminHandler) ValidateCredential(c *gin.Context) {
	valid, err := h.membership.ValidateCredential(c.Request.Context(), c.Param("memberId"), c.Param("credential"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *AdminHandler) SyncProfile(c *gin.Context) {
	var req models.SyncProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.membership.SyncProfile(c.Request.Context(), c.Param("memberId"), &membership.Profile{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// ============================================
// THEME
// ============================================

// ValidateTheme checks an event color scheme against WCAG contrast rules
func (h *AdminHandler) ValidateTheme(c *gin.Context) {
	var req models.ValidateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := theme.Validate(&theme.Theme{
		Background: req.Background,
		Text:       req.Text,
		Accent:     req.Accent,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ============================================
// SYSTEM CONFIG
// ============================================

func (h *AdminHandler) ListConfig(c *gin.Context) {
	entries, err := h.configRepo.FindAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.ConfigEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, models.ConfigEntryResponse{
			Key:         e.Key,
			Value:       e.Value,
			Description: e.Description,
			UpdatedAt:   e.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, responses)
}

func (h *AdminHandler) UpsertConfig(c *gin.Context) {
	var req models.UpsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := &repository.ConfigEntry{
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	}
	if err := h.configRepo.Upsert(c.Request.Context(), entry); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ConfigEntryResponse{
		Key:         entry.Key,
		Value:       entry.Value,
		Description: entry.Description,
		UpdatedAt:   entry.UpdatedAt,
	})
}
