package notify

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	// DefaultFCMEndpoint is the base URL of the FCM HTTP v1 API.
	DefaultFCMEndpoint = "https://fcm.googleapis.com"
	// DefaultTokenURI is Google's OAuth 2.0 token endpoint.
	DefaultTokenURI = "https://oauth2.googleapis.com/token"

	messagingScope     = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime  = time.Hour
	tokenRefreshMargin = time.Minute
	maxErrorBody       = 4 << 10
)

var (
	// ErrNoDeviceToken is returned when no phone is registered for pushes.
	ErrNoDeviceToken = errors.New("no device token registered")
	// ErrRejected is returned when FCM or the token endpoint refuses a request.
	ErrRejected = errors.New("request rejected")
	// errMissingProject is returned when neither settings nor credentials name a project.
	errMissingProject = errors.New("firebase project id is required")
	// errMissingResolver is returned when no token resolver is configured.
	errMissingResolver = errors.New("device token resolver is required")
)

// TokenResolver returns the FCM registration token of the target phone.
type TokenResolver interface {
	DeviceToken(ctx context.Context) (string, error)
}

// FCMOptions configures an FCMSender.
type FCMOptions struct {
	// ProjectID overrides the project of the service account.
	ProjectID string
	// Endpoint overrides DefaultFCMEndpoint.
	Endpoint string
	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
	// MinInterval is the minimum spacing between two sends; zero disables pacing.
	MinInterval time.Duration
	// Tokens resolves the target device.
	Tokens TokenResolver
}

// FCMSender delivers messages through Firebase Cloud Messaging.
type FCMSender struct {
	account    *ServiceAccount
	key        *rsa.PrivateKey
	projectID  string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenResolver
	now        func() time.Time

	// mu guards the cached access token.
	mu           sync.Mutex
	accessToken  string
	accessExpiry time.Time
}

// NewFCMSender validates account and builds a sender.
func NewFCMSender(account *ServiceAccount, opts FCMOptions) (*FCMSender, error) {
	if account == nil {
		return nil, ErrNoCredentials
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %w", ErrInvalidCredentials, err)
	}

	projectID := opts.ProjectID
	if projectID == "" {
		projectID = account.ProjectID
	}

	if projectID == "" {
		return nil, errMissingProject
	}

	if opts.Tokens == nil {
		return nil, errMissingResolver
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &FCMSender{
		account:    account,
		key:        key,
		projectID:  projectID,
		endpoint:   endpoint,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		tokens:     opts.Tokens,
		now:        time.Now,
	}, nil
}

// fcmRequest is the body of messages:send.
type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Android      fcmAndroid        `json:"android"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority string `json:"priority"`
}

// Send delivers msg to the registered device with high Android priority.
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	deviceToken, err := s.tokens.DeviceToken(ctx)
	if err != nil {
		return fmt.Errorf("resolve device token: %w", err)
	}

	if deviceToken == "" {
		return ErrNoDeviceToken
	}

	accessToken, err := s.token(ctx)
	if err != nil {
		return fmt.Errorf("obtain access token: %w", err)
	}

	payload, err := json.Marshal(fcmRequest{
		Message: fcmMessage{
			Token: deviceToken,
			Notification: fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Android: fcmAndroid{Priority: "high"},
			Data:    map[string]string{"reason": msg.Reason.String()},
		},
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err = s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	sendURL := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, url.PathEscape(s.projectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		s.invalidate()
	}

	if resp.StatusCode != http.StatusOK {
		return rejection(resp)
	}

	return nil
}

// token returns a cached access token or exchanges a fresh assertion.
func (s *FCMSender) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.accessToken != "" && now.Add(tokenRefreshMargin).Before(s.accessExpiry) {
		return s.accessToken, nil
	}

	assertion, err := s.assertion(now)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type": {jwtBearerGrantType},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange assertion: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", rejection(resp)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	if err = json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	if grant.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRejected)
	}

	s.accessToken = grant.AccessToken
	s.accessExpiry = now.Add(time.Duration(grant.ExpiresIn) * time.Second)

	return s.accessToken, nil
}

// assertion signs the JWT bearer assertion for the token exchange.
func (s *FCMSender) assertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": messagingScope,
		"aud":   s.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.account.PrivateKeyID != "" {
		token.Header["kid"] = s.account.PrivateKeyID
	}

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	return signed, nil
}

// invalidate drops the cached access token.
func (s *FCMSender) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.accessExpiry = time.Time{}
}

// rejection builds an error from a non-200 response.
func rejection(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, strings.TrimSpace(string(body)))
}
