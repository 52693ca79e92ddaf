package webhook

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

// Client pings uptime monitors after successful background job runs
type Client struct {
	httpClient *resty.Client
	logger     *logger.Logger
}

func New(logger *logger.Logger) *Client {
	return &Client{
		httpClient: resty.New().SetTimeout(10 * time.Second),
		logger:     logger,
	}
}

// CallUptimeWebhook makes a GET request to the webhook URL. Failures are only
// logged: a missed ping must never fail the job that triggered it.
func (c *Client) CallUptimeWebhook(ctx context.Context, webhookURL string) {
	if webhookURL == "" {
		return
	}

	resp, err := c.httpClient.R().SetContext(ctx).Get(webhookURL)
	if err != nil {
		c.logger.Error("Failed to call uptime webhook", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return
	}

	if resp.IsError() {
		c.logger.Warn("Uptime webhook answered with an error status", map[string]string{
			"url":         webhookURL,
			"status_code": strconv.Itoa(resp.StatusCode()),
		})
		return
	}

	c.logger.Info("Successfully called uptime webhook", map[string]string{
		"url":         webhookURL,
		"status_code": resp.Status(),
	})
}
