package lxp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/models"
	"lxpfetch/pkg/ratelimit"
)

const (
	// maxConnsPerHost keeps the connection pool within what the platform
	// tolerates from one client.
	maxConnsPerHost = 10

	userAgent = "lxpfetch/1.0"
)

// Client talks to the learning platform API. All requests share one
// authenticated session; an expired session is refreshed at most once per
// expiry through Relogin.
type Client struct {
	httpClient *http.Client
	fileClient *http.Client
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger

	mu         sync.RWMutex
	creds      models.Credentials
	token      string
	userID     int64
	generation uint64

	// reloginMu serializes re-login so concurrent expired requests trigger
	// a single sign-in.
	reloginMu sync.Mutex
}

// NewClient creates a platform client for the given base URL
func NewClient(baseURL string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	transport := &http.Transport{
		MaxConnsPerHost:     maxConnsPerHost,
		MaxIdleConnsPerHost: maxConnsPerHost,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		// File downloads can be large; bound the wait for headers but let
		// the body stream as long as the context allows.
		fileClient: &http.Client{
			Transport: &http.Transport{
				MaxConnsPerHost:       maxConnsPerHost,
				MaxIdleConnsPerHost:   maxConnsPerHost,
				ResponseHeaderTimeout: timeout,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
		logger:  log,
	}
}

// BaseURL returns the platform URL this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current authenticated session state
func (c *Client) Session() models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.Session{UserID: c.userID, Generation: c.generation}
}

// SessionGeneration returns the current session generation counter
func (c *Client) SessionGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Login authenticates with the platform and stores the session token.
// Rejected credentials surface as a fatal invalid_credentials error; network
// and server failures keep their transient classification so callers can
// retry them.
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	if creds.Login == "" || creds.Password == "" {
		return apperrors.New(apperrors.ErrorTypeConfig, "login and password are required")
	}
	return c.signIn(ctx, creds)
}

// Relogin refreshes an expired session exactly once. The observed generation
// tells it whether another caller already refreshed; in that case it does
// nothing and the caller just retries with the new token.
func (c *Client) Relogin(ctx context.Context, observed uint64) error {
	c.reloginMu.Lock()
	defer c.reloginMu.Unlock()

	c.mu.RLock()
	current := c.generation
	creds := c.creds
	c.mu.RUnlock()

	if current != observed {
		c.logger.DebugWithFields("session already refreshed", map[string]interface{}{
			"observed_generation": observed,
			"current_generation":  current,
		})
		return nil
	}

	c.logger.InfoWithFields("session expired, signing in again", map[string]interface{}{
		"generation": current,
	})
	return c.signIn(ctx, creds)
}

// signIn performs the actual sign-in exchange
func (c *Client) signIn(ctx context.Context, creds models.Credentials) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeCancelled, "cancelled while rate limited", err)
	}

	form := url.Values{}
	form.Set("login", creds.Login)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SignInEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeUnknown, "failed to create sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	c.logger.DebugWithFields("sending sign-in request", map[string]interface{}{
		"url":   req.URL.String(),
		"login": creds.Login,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.Wrap(apperrors.ErrorTypeCancelled, "sign-in cancelled", ctx.Err())
		}
		return apperrors.Wrap(apperrors.ErrorTypeNetwork, "sign-in request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeNetwork, "failed to read sign-in response", err)
	}

	c.logger.DebugWithFields("sign-in request completed", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to token decoding below.
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnprocessableEntity:
		message := errorMessage(body, "login or password rejected")
		c.logger.WarnWithFields("sign-in rejected", map[string]interface{}{
			"status":  resp.StatusCode,
			"message": message,
		})
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeInvalidCredentials,
			Message: message,
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.FromStatusCode(resp.StatusCode, errorMessage(body, "rate limit exceeded"))
	case resp.StatusCode >= 500:
		return apperrors.FromStatusCode(resp.StatusCode, errorMessage(body, "server error"))
	default:
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeUnexpectedResponse,
			Message: errorMessage(body, fmt.Sprintf("unexpected sign-in status %d", resp.StatusCode)),
			Code:    resp.StatusCode,
		}
	}

	var signIn signInResponse
	if err := json.Unmarshal(body, &signIn); err != nil {
		c.logger.ErrorWithFields("failed to parse sign-in response", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": bodyPreview(body),
		})
		return apperrors.Wrap(apperrors.ErrorTypeUnexpectedResponse, "failed to parse sign-in response", err)
	}
	if signIn.Token == "" || signIn.Data.ID == 0 {
		return apperrors.New(apperrors.ErrorTypeUnexpectedResponse, "sign-in response carries no token")
	}

	c.mu.Lock()
	c.creds = creds
	c.token = signIn.Token
	c.userID = signIn.Data.ID
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	c.logger.InfoWithFields("signed in", map[string]interface{}{
		"user_id":    signIn.Data.ID,
		"generation": generation,
	})

	return nil
}

// do performs an authenticated platform request
func (c *Client) do(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeCancelled, "cancelled while rate limited", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeUnknown, "failed to create request", err)
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeCancelled, "request cancelled", ctx.Err())
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, apperrors.Wrap(apperrors.ErrorTypeNetwork, fmt.Sprintf("request to %s failed", path), err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	resp, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeNetwork, "failed to read response body", err)
	}

	if err := c.checkResponseStatus(resp, body, true); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview(body),
		})
		return apperrors.Wrap(apperrors.ErrorTypeUnexpectedResponse, "failed to parse JSON response", err)
	}

	return nil
}

// checkResponseStatus maps non-2xx statuses to classified errors. On
// unauthenticated fetches a 401 is terminal rather than a session expiry,
// since no token was sent in the first place.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte, authed bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := errorMessage(body, http.StatusText(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !authed:
		return &apperrors.Error{Type: apperrors.ErrorTypeForbidden, Message: message, Code: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.WarnWithFields("session expired", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return apperrors.FromStatusCode(resp.StatusCode, message)
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return apperrors.FromStatusCode(resp.StatusCode, message)
	default:
		c.logger.WarnWithFields("request rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return apperrors.FromStatusCode(resp.StatusCode, message)
	}
}

// SubjectsPage fetches one page of the authenticated user's subject listing.
// It returns the entries and the total page count.
func (c *Client) SubjectsPage(ctx context.Context, page int) ([]SubjectListEntry, int, error) {
	c.mu.RLock()
	userID := c.userID
	c.mu.RUnlock()

	var response subjectsPageResponse
	if err := c.getJSON(ctx, SubjectsPath(userID, page), &response); err != nil {
		return nil, 0, err
	}

	entries := make([]SubjectListEntry, 0, len(response.Data.Data))
	for _, item := range response.Data.Data {
		entries = append(entries, SubjectListEntry{ID: item.ID, Title: item.Title})
	}

	lastPage := response.Data.LastPage
	if lastPage < 1 {
		lastPage = 1
	}

	return entries, lastPage, nil
}

// Subject fetches one subject's detail payload
func (c *Client) Subject(ctx context.Context, subjectID int64) (*SubjectDetail, error) {
	var response subjectResponse
	if err := c.getJSON(ctx, SubjectPath(subjectID), &response); err != nil {
		return nil, err
	}

	var payload subjectPayload
	if err := json.Unmarshal(response.Data, &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeUnexpectedResponse, "failed to parse subject payload", err)
	}

	detail := &SubjectDetail{
		Subject: payload.toSubject(subjectID, response.Data),
		Raw:     response.Data,
	}
	for _, chapter := range payload.Chapters {
		detail.Chapters = append(detail.Chapters, Chapter{ID: chapter.ID, Title: chapter.Title})
	}
	for _, step := range payload.Steps {
		detail.Steps = append(detail.Steps, Step{ID: step.ID, ChapterID: step.ChapterID, Hidden: step.Hidden})
	}

	return detail, nil
}

// LessonStep fetches one lesson step and returns both the decoded page and
// the raw payload for JSON output mode
func (c *Client) LessonStep(ctx context.Context, stepID int64) (*models.LessonPage, []byte, error) {
	var response lessonResponse
	if err := c.getJSON(ctx, LessonPath(stepID), &response); err != nil {
		return nil, nil, err
	}

	var payload lessonPayload
	if err := json.Unmarshal(response.Data, &payload); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrorTypeUnexpectedResponse, "failed to parse lesson payload", err)
	}

	return payload.toLessonPage(stepID), response.Data, nil
}

// Download fetches a document or asset. Absolute locators point at external
// storage and are fetched without authentication; relative locators resolve
// against the platform with the bearer token attached.
func (c *Client) Download(ctx context.Context, locator string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrorTypeCancelled, "cancelled while rate limited", err)
	}

	authed := !IsAbsoluteLocator(locator)
	target := JoinURL(c.baseURL, locator)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrorTypeUnknown, "failed to create download request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if authed {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("downloading file", map[string]interface{}{
		"url":    target,
		"authed": authed,
	})

	resp, err := c.fileClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrorTypeCancelled, "download cancelled", ctx.Err())
		}
		return nil, "", apperrors.Wrap(apperrors.ErrorTypeNetwork, fmt.Sprintf("download of %s failed", locator), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", c.checkResponseStatus(resp, preview, authed)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrorTypeCancelled, "download cancelled", ctx.Err())
		}
		return nil, "", apperrors.Wrap(apperrors.ErrorTypeNetwork, "failed to read download body", err)
	}

	c.logger.DebugWithFields("download completed", map[string]interface{}{
		"url":      target,
		"size":     len(data),
		"duration": time.Since(start),
	})

	return data, resp.Header.Get("Content-Type"), nil
}

// errorMessage pulls the platform's error message out of a response body,
// falling back when there is none
func errorMessage(body []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}

// bodyPreview truncates a response body for log output
func bodyPreview(body []byte) string {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return preview
}
