package fcm

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orghub-api/internal/config"
	"github.com/orghub-api/internal/domain"
)

const (
	assertionLifetime = time.Hour
	// expirySlack re-mints this long before the cached bearer actually
	// expires, so in-flight sends never race the deadline.
	expirySlack = time.Minute

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// TokenSource mints short-lived bearer tokens for the push backend via an
// RFC 7523 JWT-bearer exchange. The current bearer is cached with its expiry
// under a mutex; a fresh one is minted only when the cache is stale.
type TokenSource struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
	tokenURI    string
	scope       string
	httpClient  *http.Client

	mu      sync.Mutex
	bearer  string
	expires time.Time

	now func() time.Time
}

// NewTokenSource parses the service-account key and returns a ready source.
// An unparsable key is permanent misconfiguration, reported as a
// non-temporary CredentialError.
func NewTokenSource(cfg config.FCMConfig, httpClient *http.Client) (*TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey))
	if err != nil {
		return nil, &domain.CredentialError{Err: fmt.Errorf("parse service account key: %w", err)}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		clientEmail: cfg.ClientEmail,
		privateKey:  key,
		tokenURI:    cfg.TokenURI,
		scope:       cfg.Scope,
		httpClient:  httpClient,
		now:         time.Now,
	}, nil
}

// Token returns a valid bearer token, re-using the cached one while it has
// more than expirySlack of life left.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bearer != "" && s.now().Before(s.expires.Add(-expirySlack)) {
		return s.bearer, nil
	}

	bearer, ttl, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}
	s.bearer = bearer
	s.expires = s.now().Add(ttl)
	return bearer, nil
}

func (s *TokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	assertion, err := s.signAssertion()
	if err != nil {
		return "", 0, &domain.CredentialError{Err: fmt.Errorf("sign assertion: %w", err)}
	}

	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &domain.CredentialError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Network-level failure: the endpoint may just be unreachable.
		return "", 0, &domain.CredentialError{Temporary: true, Err: fmt.Errorf("token exchange: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, &domain.CredentialError{Temporary: true, Err: fmt.Errorf("read token response: %w", err)}
	}
	if resp.StatusCode >= 500 {
		return "", 0, &domain.CredentialError{Temporary: true, Err: fmt.Errorf("token endpoint returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, &domain.CredentialError{Err: fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, &domain.CredentialError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if payload.AccessToken == "" {
		return "", 0, &domain.CredentialError{Err: fmt.Errorf("token response missing access_token")}
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = assertionLifetime
	}
	return payload.AccessToken, ttl, nil
}

func (s *TokenSource) signAssertion() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"iss":   s.clientEmail,
		"scope": s.scope,
		"aud":   s.tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
}
