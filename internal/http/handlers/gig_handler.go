package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/http/handlers/common"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

type GigHandler struct {
	svc *service.GigService
}

func NewGigHandler(s *service.GigService) *GigHandler {
	return &GigHandler{svc: s}
}

// CreateGig POST /gigs
func (h *GigHandler) CreateGig(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Title                string           `json:"title" binding:"required"`
		Description          string           `json:"description" binding:"required"`
		Category             string           `json:"category" binding:"required"`
		PriceBasic           decimal.Decimal  `json:"price_basic" binding:"required"`
		PriceStandard        *decimal.Decimal `json:"price_standard"`
		PricePremium         *decimal.Decimal `json:"price_premium"`
		DeliveryDaysBasic    int              `json:"delivery_days_basic" binding:"required,gt=0"`
		DeliveryDaysStandard *int             `json:"delivery_days_standard"`
		DeliveryDaysPremium  *int             `json:"delivery_days_premium"`
		IsPublished          *bool            `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	gig, err := h.svc.Create(c.Request.Context(), userID, service.CreateGigInput{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		PriceBasic:           req.PriceBasic,
		PriceStandard:        req.PriceStandard,
		PricePremium:         req.PricePremium,
		DeliveryDaysBasic:    req.DeliveryDaysBasic,
		DeliveryDaysStandard: req.DeliveryDaysStandard,
		DeliveryDaysPremium:  req.DeliveryDaysPremium,
		IsPublished:          published,
	})
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gig)
}

// GetGig GET /gigs/:id
func (h *GigHandler) GetGig(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	gig, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gig)
}

// GetGigBySlug GET /gigs/slug/:slug
func (h *GigHandler) GetGigBySlug(c *gin.Context) {
	gig, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gig)
}

// ListGigs GET /gigs
func (h *GigHandler) ListGigs(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	gigs, err := h.svc.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gigs)
}

// ListMyGigs GET /gigs/my
func (h *GigHandler) ListMyGigs(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	gigs, err := h.svc.ListBySeller(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gigs)
}
