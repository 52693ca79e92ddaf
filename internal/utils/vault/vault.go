package vault

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
)

const kubernetesTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// VaultClient reads secrets from Vault after a Kubernetes auth login
type VaultClient struct {
	client       *resty.Client
	kvSecretPath string
	role         string
	token        string
	readJWT      func() (string, error)
}

type Option func(*VaultClient)

// WithJWTReader replaces the service account token reader, mostly for tests.
func WithJWTReader(read func() (string, error)) Option {
	return func(vc *VaultClient) {
		vc.readJWT = read
	}
}

type loginResponse struct {
	Errors []string `json:"errors"`
	Auth   *struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

type kvResponse struct {
	Errors []string `json:"errors"`
	Data   *struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

// New logs in to Vault and returns a client holding the session token
func New(ctx context.Context, cfg config.VaultConfig, opts ...Option) (*VaultClient, error) {
	vc := &VaultClient{
		client:       resty.New().SetBaseURL(cfg.Addr).SetTimeout(10 * time.Second),
		kvSecretPath: cfg.KVSecretPath,
		role:         cfg.Role,
		readJWT:      readKubernetesToken,
	}
	for _, opt := range opts {
		opt(vc)
	}

	token, err := vc.login(ctx)
	if err != nil {
		return nil, err
	}
	vc.token = token
	return vc, nil
}

func readKubernetesToken() (string, error) {
	token, err := os.ReadFile(kubernetesTokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return string(token), nil
}

func (vc *VaultClient) login(ctx context.Context) (string, error) {
	jwt, err := vc.readJWT()
	if err != nil {
		return "", err
	}

	var result loginResponse
	resp, err := vc.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"jwt":  jwt,
			"role": vc.role,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/auth/kubernetes/login")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("vault authentication failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("vault authentication error: %v", result.Errors)
	}
	if result.Auth == nil || result.Auth.ClientToken == "" {
		return "", fmt.Errorf("vault returned empty client_token")
	}

	return result.Auth.ClientToken, nil
}

// GetKV retrieves one key of the configured KV v2 secret
func (vc *VaultClient) GetKV(ctx context.Context, secretKey string) (string, error) {
	var result kvResponse
	resp, err := vc.client.R().
		SetContext(ctx).
		SetHeader("X-Vault-Token", vc.token).
		SetResult(&result).
		SetError(&result).
		Get("/v1/" + vc.kvSecretPath)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("vault KV get failed with status %d: %v", resp.StatusCode(), result.Errors)
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("vault KV get error: %v", result.Errors)
	}
	if result.Data == nil || result.Data.Data == nil {
		return "", fmt.Errorf("vault response missing 'data' field")
	}

	secretInterface, exists := result.Data.Data[secretKey]
	if !exists {
		return "", fmt.Errorf("secret key '%s' not found", secretKey)
	}
	secret, ok := secretInterface.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key '%s' is not a string", secretKey)
	}
	return secret, nil
}
