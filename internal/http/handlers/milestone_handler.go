package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/http/handlers/common"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

type MilestoneHandler struct {
	svc *service.MilestoneService
}

func NewMilestoneHandler(s *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{svc: s}
}

// CreateMilestone POST /orders/:id/milestones
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Title       string          `json:"title" binding:"required"`
		Description *string         `json:"description"`
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		DueDate     *time.Time      `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	m, err := h.svc.Create(c.Request.Context(), orderID, userID, service.CreateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// CompleteMilestone POST /orders/:id/milestones/:milestoneID/complete
func (h *MilestoneHandler) CompleteMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "milestoneID")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	m, err := h.svc.Complete(c.Request.Context(), orderID, milestoneID, userID)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// ListMilestones GET /orders/:id/milestones
func (h *MilestoneHandler) ListMilestones(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones, err := h.svc.List(c.Request.Context(), orderID, userID, role)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, milestones)
}
