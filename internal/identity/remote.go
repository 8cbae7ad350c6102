package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

// RemoteProvider asks a hosted auth service who a token belongs to.
type RemoteProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

func NewRemoteProvider(httpClient *http.Client, baseURL, apiKey string, baseLog *logger.Logger) (*RemoteProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("IDENTITY_URL is required for remote identity")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        baseLog.With("provider", "RemoteIdentity"),
	}, nil
}

type remoteUser struct {
	ID string `json:"id"`
}

func (p *RemoteProvider) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, apierr.Unauthenticated("missing_token", "missing bearer token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return uuid.Nil, apierr.Internal(fmt.Errorf("identity request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return uuid.Nil, apierr.Unauthenticated("invalid_token", "identity provider rejected token")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.log.Warn("identity provider error", "status", resp.StatusCode, "body", string(body))
		return uuid.Nil, apierr.Internal(fmt.Errorf("identity provider returned %d", resp.StatusCode))
	}

	var u remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return uuid.Nil, apierr.Internal(fmt.Errorf("decode identity response: %w", err))
	}
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return uuid.Nil, apierr.Unauthenticated("invalid_subject", "identity provider returned a non-uuid id")
	}
	return id, nil
}
