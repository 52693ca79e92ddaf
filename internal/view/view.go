package view

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func CreateErrorResponse(message string, fields ...FieldError) ErrorResponse {
	return ErrorResponse{Message: message, Errors: fields}
}

type InitiateSwapResponse struct {
	Message        string `json:"message"`
	SwapID         string `json:"swapId"`
	DepositAddress string `json:"depositAddress"`
}

type SwapTransitionResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type SwapStatusResponse struct {
	SwapID            string                   `json:"swapId"`
	Status            string                   `json:"status"`
	TargetToken       string                   `json:"targetToken"`
	AmountAlph        json.Number              `json:"amountAlph" swaggertype:"number"`
	AmountTargetToken *json.Number             `json:"amountTargetToken,omitempty" swaggertype:"number"`
	UserAddress       string                   `json:"userAddress"`
	DepositTxID       *string                  `json:"depositTxId,omitempty"`
	FaucetTxID        *string                  `json:"faucetTxId,omitempty"`
	FailureReason     *string                  `json:"failureReason,omitempty"`
	Timestamp         time.Time                `json:"timestamp"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	History           []SwapTransitionResponse `json:"history,omitempty"`
}

type SwapHistoryResponse struct {
	Total int64                `json:"total"`
	Swaps []SwapStatusResponse `json:"swaps"`
}

type TokenResponse struct {
	Symbol   string      `json:"symbol"`
	TokenID  string      `json:"tokenId"`
	Rate     json.Number `json:"rate" swaggertype:"number"`
	Decimals int32       `json:"decimals"`
}

type TokensResponse struct {
	DepositAddress string          `json:"depositAddress"`
	Tokens         []TokenResponse `json:"tokens"`
}

// Number renders a decimal as a bare JSON number, keeping every digit.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func ToSwapStatusResponse(r *model.SwapRequest, transitions []*model.SwapRequestTransition) SwapStatusResponse {
	resp := SwapStatusResponse{
		SwapID:        r.ID,
		Status:        string(r.Status),
		TargetToken:   string(r.TargetToken),
		AmountAlph:    Number(r.AmountAlph),
		UserAddress:   r.UserAddress,
		DepositTxID:   r.DepositTxID,
		FaucetTxID:    r.FaucetTxID,
		FailureReason: r.FailureReason,
		Timestamp:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.AmountTargetToken.Valid {
		amount := Number(r.AmountTargetToken.Decimal)
		resp.AmountTargetToken = &amount
	}
	for _, t := range transitions {
		resp.History = append(resp.History, SwapTransitionResponse{
			From:      string(t.FromStatus),
			To:        string(t.ToStatus),
			Reason:    t.Reason,
			Timestamp: t.CreatedAt,
		})
	}
	return resp
}

func ToSwapHistoryResponse(records []*model.SwapRequest, total int64) SwapHistoryResponse {
	swaps := make([]SwapStatusResponse, 0, len(records))
	for _, r := range records {
		swaps = append(swaps, ToSwapStatusResponse(r, nil))
	}
	return SwapHistoryResponse{Total: total, Swaps: swaps}
}
