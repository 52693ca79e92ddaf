package alphrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

type AlphRPC struct {
	client         *resty.Client
	walletName     string
	walletPassword string
	logger         *logger.Logger
}

// New builds a node client. Reads are retried on network errors and 5xx
// answers; wallet calls are sent once.
func New(appConfig *config.AppConfig, logger *logger.Logger) IAlphRPC {
	client := resty.New().
		SetBaseURL(appConfig.Alephium.NodeURL).
		SetTimeout(appConfig.Alephium.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if appConfig.Alephium.NodeAPIKey != "" {
		client.SetHeader("X-API-KEY", appConfig.Alephium.NodeAPIKey)
	}

	return &AlphRPC{
		client:         client,
		walletName:     appConfig.Alephium.WalletName,
		walletPassword: appConfig.Alephium.WalletPassword,
		logger:         logger,
	}
}

func (a *AlphRPC) AddressBalance(ctx context.Context, address string) (*AddressBalance, error) {
	var balance AddressBalance
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		SetResult(&balance).
		Get("/addresses/{address}/balance")
	if err := a.check("AddressBalance", resp, err); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (a *AlphRPC) TransactionStatus(ctx context.Context, txID string) (*TransactionStatus, error) {
	var status TransactionStatus
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("txId", txID).
		SetResult(&status).
		Get("/transactions/status")
	if err := a.check("TransactionStatus", resp, err); err != nil {
		return nil, err
	}
	return &status, nil
}

func (a *AlphRPC) TransactionDetails(ctx context.Context, txID string) (*TransactionDetails, error) {
	var details TransactionDetails
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("txId", txID).
		SetResult(&details).
		Get("/transactions/details/{txId}")
	if err := a.check("TransactionDetails", resp, err); err != nil {
		return nil, err
	}
	return &details, nil
}

func (a *AlphRPC) TransferToken(ctx context.Context, transfer Transfer) (string, error) {
	if err := a.unlock(ctx); err != nil {
		return "", err
	}

	dest := destination{
		Address:        transfer.ToAddress,
		AttoAlphAmount: transfer.AttoAlphAmount,
	}
	if transfer.TokenID != "" {
		dest.Tokens = []Token{{ID: transfer.TokenID, Amount: transfer.TokenAmount}}
	}

	var result transferResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("wallet", a.walletName).
		SetBody(transferRequest{Destinations: []destination{dest}}).
		SetResult(&result).
		Post("/wallets/{wallet}/transfer")
	if err := a.check("TransferToken.transfer", resp, err); err != nil {
		return "", err
	}
	if result.TxID == "" {
		return "", errors.New("node returned an empty transaction id")
	}

	a.logger.Info("[TransferToken] transfer submitted", map[string]string{
		"txId":    result.TxID,
		"to":      transfer.ToAddress,
		"tokenId": transfer.TokenID,
		"amount":  transfer.TokenAmount,
	})
	return result.TxID, nil
}

// unlock errors never wrap ErrRequestRejected: a refused unlock is an operator
// problem, not a verdict on the transfer.
func (a *AlphRPC) unlock(ctx context.Context) error {
	if a.walletName == "" {
		return errors.Wrap(ErrWalletUnavailable, "alephium wallet name is not configured")
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("wallet", a.walletName).
		SetBody(map[string]string{"password": a.walletPassword}).
		Post("/wallets/{wallet}/unlock")
	if err := a.check("TransferToken.unlock", resp, err); err != nil {
		return fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	return nil
}

func (a *AlphRPC) NodeInfo(ctx context.Context) (*SelfClique, error) {
	var info SelfClique
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/infos/self-clique")
	if err := a.check("NodeInfo", resp, err); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *AlphRPC) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		a.logger.Error(fmt.Sprintf("[%s] request failed", op), map[string]string{
			"error": err.Error(),
		})
		return errors.Wrapf(err, "alephium node %s", op)
	}
	if !resp.IsError() {
		return nil
	}

	detail := nodeErrorDetail(resp)
	a.logger.Error(fmt.Sprintf("[%s] node returned an error", op), map[string]string{
		"statusCode": strconv.Itoa(resp.StatusCode()),
		"detail":     detail,
		"path":       requestPath(resp),
	})

	if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError {
		return fmt.Errorf("%w: %s: %s", ErrRequestRejected, op, detail)
	}
	return fmt.Errorf("alephium node %s: status %d: %s", op, resp.StatusCode(), detail)
}

func nodeErrorDetail(resp *resty.Response) string {
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return string(resp.Body())
}

func requestPath(resp *resty.Response) string {
	if resp.Request == nil || resp.Request.RawRequest == nil {
		return ""
	}
	return resp.Request.RawRequest.URL.Path
}
