package handlers

import (
	"errors"
	"net/http"

	"ngo_backend/internal/auth"
	"ngo_backend/internal/logger"
	"ngo_backend/internal/middleware"
	"ngo_backend/internal/services"
	"ngo_backend/internal/services/dto"
	"ngo_backend/internal/services/payment"
	"ngo_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	*BaseHandler
	donationService services.DonationService
}

func NewDonationHandler(base *BaseHandler, donationService services.DonationService) *DonationHandler {
	return &DonationHandler{
		BaseHandler:     base,
		donationService: donationService,
	}
}

func (h *DonationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Public routes
	public := r.Group("/donations")
	{
		public.POST("/create-order", h.CreateOrder)
		public.POST("/verify-payment", h.VerifyPayment)
		public.POST("/webhook", h.Webhook)
		public.GET("/links/:slug", h.GetDonationLink)
		public.GET("/links/:slug/event-items", h.GetDonationLinkItems)
	}

	// Operator routes
	read := r.Group("/donations")
	read.Use(middleware.AuthMiddleware(), middleware.RequirePermission(auth.PermDonationsRead))
	{
		read.GET("/transactions", h.ListTransactions)
		read.GET("/transactions/:id", h.GetTransaction)
		read.GET("/wallet", h.GetWallet)
	}

	write := r.Group("/donations")
	write.Use(middleware.AuthMiddleware(), middleware.RequirePermission(auth.PermDonationsWrite))
	{
		write.POST("/reconcile", h.Reconcile)
	}
}

// --- Public handlers ---

func (h *DonationHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.donationService.CreateOrder(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DonationHandler) VerifyPayment(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	donation, err := h.donationService.VerifyPayment(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidSignature) {
			logger.CtxWarn(c.Request.Context(), "verify-payment signature mismatch", "client_ip", c.ClientIP())
		}
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donation)
}

// Webhook: подпись считается по сырому телу, поэтому тело читается до разбора.
// 5xx заставляет шлюз повторить доставку.
func (h *DonationHandler) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		// 4xx шлюз считает окончательным отказом; тело не прочитано - пусть повторит
		logger.CtxWithError(ctx, "failed to read webhook body", err)
		apperrors.HandleError(c, apperrors.Wrap(err, apperrors.CodeInternalError, "webhook",
			"Webhook body could not be read", http.StatusInternalServerError))
		return
	}

	result, err := h.donationService.HandleWebhook(ctx, h.GetDB(c), body,
		c.GetHeader(payment.HeaderSignature), c.GetHeader(payment.HeaderEventID))
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidWebhookSignature) {
			logger.CtxWarn(ctx, "webhook signature mismatch", "client_ip", c.ClientIP())
		}
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DonationHandler) GetDonationLink(c *gin.Context) {
	link, err := h.donationService.GetDonationLink(c.Request.Context(), h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *DonationHandler) GetDonationLinkItems(c *gin.Context) {
	items, err := h.donationService.GetDonationLinkItems(c.Request.Context(), h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// --- Operator handlers ---

func (h *DonationHandler) ListTransactions(c *gin.Context) {
	var query dto.ListTransactionsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.donationService.ListTransactions(c.Request.Context(), h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DonationHandler) GetTransaction(c *gin.Context) {
	detail, err := h.donationService.GetTransaction(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *DonationHandler) GetWallet(c *gin.Context) {
	summary, err := h.donationService.WalletSummary(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DonationHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	logger.CtxInfo(ctx, "manual reconciliation requested", "operator", middleware.GetUserID(c))

	result, err := h.donationService.ReconcilePending(ctx, h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
