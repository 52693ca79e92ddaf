package swap

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
	"github.com/dwarvesf/alph-swap-backend/internal/view"
)

const (
	maxBodyBytes        = 16 << 10
	defaultHistoryLimit = 20
)

type InitiateSwapRequest struct {
	TargetToken string      `json:"targetToken" binding:"required,max=32" example:"YUM"`
	AmountAlph  json.Number `json:"amountAlph" binding:"required,alph_amount" swaggertype:"number" example:"10"`
	UserAddress string      `json:"userAddress" binding:"required,max=128" example:"1DrDyTr9RpRsQnDnXo2YRiPzPW4ooHX5LLoqXrqfMrpQH"`
	DepositTxID *string     `json:"depositTxId,omitempty" binding:"omitempty,txid"`
}

type AttachDepositRequest struct {
	DepositTxID string `json:"depositTxId" binding:"required,txid"`
}

type historyQuery struct {
	UserAddress string `form:"userAddress" binding:"required,max=128"`
	Status      string `form:"status"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

type handler struct {
	controller      controller.IController
	logger          *logger.Logger
	appConfig       *config.AppConfig
	validate        *validator.Validate
	metricsRecorder *monitoring.BusinessMetricsRecorder
}

func New(controller controller.IController, logger *logger.Logger, appConfig *config.AppConfig, metricsRecorder *monitoring.BusinessMetricsRecorder) IHandler {
	return &handler{
		controller:      controller,
		logger:          logger,
		appConfig:       appConfig,
		validate:        validator.New(),
		metricsRecorder: metricsRecorder,
	}
}

// Initiate godoc
// @Summary Initiate a swap request
// @Description Registers the intent to swap ALPH for a supported target token and returns the deposit address
// @id initiateSwap
// @Tags Swap
// @Accept json
// @Produce json
// @Param body body InitiateSwapRequest true "Swap request"
// @Success 200 {object} view.InitiateSwapResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 405 {object} view.MessageResponse
// @Failure 500 {object} view.MessageResponse
// @Router /swap/initiate [post]
func (h *handler) Initiate(c *gin.Context) {
	start := time.Now()

	var req InitiateSwapRequest
	if err := bindJSON(c, &req); err != nil {
		h.record("initiate", "invalid", start)
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid request body", bindingFieldErrors(err, "body")...))
		return
	}

	amount, err := decimal.NewFromString(req.AmountAlph.String())
	if err != nil {
		h.record("initiate", "invalid", start)
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid request body", view.FieldError{
			Field:   "amountAlph",
			Message: "must be a number",
		}))
		return
	}

	swapRequest, err := h.controller.CreateSwapRequest(c.Request.Context(), controller.CreateSwapRequestInput{
		UserAddress: req.UserAddress,
		TargetToken: req.TargetToken,
		AmountAlph:  amount,
		DepositTxID: req.DepositTxID,
	})
	if err != nil {
		h.record("initiate", "error", start)
		h.writeError(c, "", "Failed to create swap request", err)
		return
	}

	h.record("initiate", "success", start)
	c.JSON(http.StatusOK, view.InitiateSwapResponse{
		Message:        "Swap request created. Send ALPH to the deposit address to continue.",
		SwapID:         swapRequest.ID,
		DepositAddress: h.appConfig.Swap.DepositAddress,
	})
}

// Status godoc
// @Summary Get swap request status
// @Description Returns the current state of a swap request, optionally with its status history
// @id getSwapStatus
// @Tags Swap
// @Produce json
// @Param swapId path string true "Swap request ID"
// @Param history query bool false "Include status history"
// @Success 200 {object} view.SwapStatusResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.MessageResponse
// @Failure 405 {object} view.MessageResponse
// @Failure 500 {object} view.MessageResponse
// @Router /swap/status/{swapId} [get]
func (h *handler) Status(c *gin.Context) {
	start := time.Now()

	swapID, ok := h.swapID(c)
	if !ok {
		h.record("status", "invalid", start)
		return
	}

	swapRequest, err := h.controller.GetSwapRequest(c.Request.Context(), swapID)
	if err != nil {
		h.record("status", "error", start)
		h.writeError(c, swapID, "Failed to load swap request", err)
		return
	}

	var transitions []*model.SwapRequestTransition
	if c.Query("history") == "true" {
		transitions, err = h.controller.ListTransitions(c.Request.Context(), swapID)
		if err != nil {
			h.record("status", "error", start)
			h.writeError(c, swapID, "Failed to load swap request history", err)
			return
		}
	}

	h.record("status", "success", start)
	c.JSON(http.StatusOK, view.ToSwapStatusResponse(swapRequest, transitions))
}

// AttachDeposit godoc
// @Summary Attach a deposit transaction
// @Description Records the ALPH deposit transaction of a pending swap request
// @id attachSwapDeposit
// @Tags Swap
// @Accept json
// @Produce json
// @Param swapId path string true "Swap request ID"
// @Param body body AttachDepositRequest true "Deposit transaction"
// @Success 200 {object} view.SwapStatusResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.MessageResponse
// @Failure 409 {object} view.MessageResponse
// @Failure 500 {object} view.MessageResponse
// @Router /swap/deposit/{swapId} [post]
func (h *handler) AttachDeposit(c *gin.Context) {
	start := time.Now()

	swapID, ok := h.swapID(c)
	if !ok {
		h.record("deposit", "invalid", start)
		return
	}

	var req AttachDepositRequest
	if err := bindJSON(c, &req); err != nil {
		h.record("deposit", "invalid", start)
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid request body", bindingFieldErrors(err, "body")...))
		return
	}

	swapRequest, err := h.controller.AttachDepositTx(c.Request.Context(), swapID, req.DepositTxID)
	if err != nil {
		h.record("deposit", "error", start)
		h.writeError(c, swapID, "Failed to attach deposit transaction", err)
		return
	}

	h.record("deposit", "success", start)
	c.JSON(http.StatusOK, view.ToSwapStatusResponse(swapRequest, nil))
}

// History godoc
// @Summary List swap requests of a user
// @Description Newest first, paginated
// @id listSwapHistory
// @Tags Swap
// @Produce json
// @Param userAddress query string true "User address"
// @Param status query string false "Status filter"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} view.SwapHistoryResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.MessageResponse
// @Router /swap/history [get]
func (h *handler) History(c *gin.Context) {
	start := time.Now()

	var query historyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.record("history", "invalid", start)
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid query parameters", bindingFieldErrors(err, "query")...))
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultHistoryLimit
	}

	records, total, err := h.controller.ListSwapRequests(c.Request.Context(), swaprequest.ListFilter{
		UserAddress: strings.TrimSpace(query.UserAddress),
		Status:      model.SwapRequestStatus(query.Status),
		Limit:       query.Limit,
		Offset:      query.Offset,
	})
	if err != nil {
		h.record("history", "error", start)
		h.writeError(c, "", "Failed to list swap requests", err)
		return
	}

	h.record("history", "success", start)
	c.JSON(http.StatusOK, view.ToSwapHistoryResponse(records, total))
}

// Tokens godoc
// @Summary List supported target tokens
// @Description Target tokens with their ALPH exchange rate
// @id listSwapTokens
// @Tags Swap
// @Produce json
// @Success 200 {object} view.TokensResponse
// @Router /swap/tokens [get]
func (h *handler) Tokens(c *gin.Context) {
	tokens := []view.TokenResponse{}
	for _, t := range h.controller.SupportedTokens() {
		tokens = append(tokens, view.TokenResponse{
			Symbol:   t.Symbol,
			TokenID:  t.TokenID,
			Rate:     view.Number(t.Rate),
			Decimals: t.Decimals,
		})
	}
	c.JSON(http.StatusOK, view.TokensResponse{
		DepositAddress: h.appConfig.Swap.DepositAddress,
		Tokens:         tokens,
	})
}

func (h *handler) swapID(c *gin.Context) (string, bool) {
	swapID := c.Param("swapId")
	if err := h.validate.Var(swapID, "required,max=64,printascii"); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid swap ID", view.FieldError{
			Field:   "swapId",
			Message: "must be 1 to 64 printable ASCII characters",
		}))
		return "", false
	}
	return swapID, true
}

func (h *handler) writeError(c *gin.Context, swapID, internalMessage string, err error) {
	var verr *controller.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]view.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, view.FieldError{Field: f.Field, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, view.CreateErrorResponse("Invalid request body", fields...))
	case errors.Is(err, controller.ErrSwapRequestNotFound):
		c.JSON(http.StatusNotFound, view.MessageResponse{Message: "Swap request not found for ID: " + swapID})
	case errors.Is(err, controller.ErrTransitionConflict), errors.Is(err, controller.ErrInvalidTransition):
		c.JSON(http.StatusConflict, view.MessageResponse{Message: "Swap request is no longer awaiting a deposit transaction"})
	default:
		h.logger.Error("[SwapHandler] "+internalMessage, map[string]string{
			"swapId": swapID,
			"path":   c.FullPath(),
			"error":  err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.MessageResponse{Message: internalMessage})
	}
}

func (h *handler) record(operation, status string, start time.Time) {
	if h.metricsRecorder != nil {
		h.metricsRecorder.RecordSwapRequest(operation, status, time.Since(start).Seconds())
	}
}
