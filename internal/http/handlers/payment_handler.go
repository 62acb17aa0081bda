package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/dto"
	"github.com/ignatzorin/marketplace-backend/internal/gateway"
	"github.com/ignatzorin/marketplace-backend/internal/http/handlers/common"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

// Заголовок подписи вебхука провайдера.
const signatureHeader = "X-Gateway-Signature"

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(s *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: s}
}

// CreateCheckout POST /orders/:id/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
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

	session, err := h.svc.CreateCheckout(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// PayWithWallet POST /orders/:id/pay-wallet
func (h *PaymentHandler) PayWithWallet(c *gin.Context) {
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

	payment, err := h.svc.PayWithWallet(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CreateTopup POST /wallet/topup
func (h *PaymentHandler) CreateTopup(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	session, err := h.svc.CreateTopup(c.Request.Context(), userID, req.Amount)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// GetWallet GET /wallet
func (h *PaymentHandler) GetWallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	wallet, err := h.svc.Wallet(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// Webhook POST /payments/webhook
// Подпись считается по сырому телу, поэтому JSON до проверки не парсим.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать тело запроса")
		return
	}

	err = h.svc.HandleWebhook(c.Request.Context(), rawBody, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			common.RespondError(c, http.StatusUnauthorized, "подпись вебхука невалидна")
		case errors.Is(err, gateway.ErrInvalidPayload):
			common.RespondBadRequest(c, "тело вебхука невалидно")
		default:
			common.RespondDomainError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
