package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/pitchside/internal/match"
)

// APIClient talks to the match API over HTTPS.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
	token      string
	initData   string
}

// Option configures an APIClient.
type Option func(*APIClient)

// WithToken authenticates with a bearer token.
func WithToken(token string) Option {
	return func(c *APIClient) { c.token = token }
}

// WithInitData authenticates with platform-signed identity data.
func WithInitData(initData string) Option {
	return func(c *APIClient) { c.initData = initData }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *APIClient) { c.httpClient = hc }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure APIClient implements the Client interface.
var _ Client = (*APIClient)(nil)

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.initData != "" {
		req.Header.Set("X-Telegram-InitData", c.initData)
	}

	log.Debug("Calling match API", "method", method, "path", path, "request_id", requestID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Kind: KindTransient, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var (
		env       envelope
		decodeErr error
	)
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := env.Error
		if code == "" {
			code = http.StatusText(resp.StatusCode)
		}
		log.Warn("Match API returned an error", "method", method, "path", path, "status", resp.StatusCode, "code", code, "request_id", requestID)
		return &Error{Status: resp.StatusCode, Code: code, Message: env.Error, Kind: KindForStatus(resp.StatusCode)}
	}
	if decodeErr != nil {
		return &Error{Status: resp.StatusCode, Code: "invalid_response", Kind: KindTransient, Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}
	if env.OK != nil && !*env.OK {
		code := env.Error
		if code == "" {
			code = "request_failed"
		}
		return &Error{Status: resp.StatusCode, Code: code, Message: env.Error, Kind: KindForCode(code)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Code: "invalid_response", Kind: KindTransient, Err: fmt.Errorf("failed to decode payload: %w", err)}
	}
	return nil
}

func matchPath(matchID int64, suffix string) string {
	return fmt.Sprintf("/matches/%d%s", matchID, suffix)
}

func (c *APIClient) GetMatch(ctx context.Context, matchID int64) (*match.Snapshot, error) {
	var snap match.Snapshot
	if err := c.do(ctx, http.MethodGet, matchPath(matchID, ""), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *APIClient) ListMatches(ctx context.Context) ([]match.Match, error) {
	var out matchesResponse
	if err := c.do(ctx, http.MethodGet, "/matches", nil, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (c *APIClient) CreateMatch(ctx context.Context, params CreateMatchParams) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/matches", params, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *APIClient) Join(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/join"), nil, nil)
}

func (c *APIClient) Spectate(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/spectate"), nil, nil)
}

func (c *APIClient) Leave(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/leave"), nil, nil)
}

func (c *APIClient) UpdatePermissions(ctx context.Context, matchID, tgID int64, canEdit bool) error {
	body := map[string]bool{"can_edit": canEdit}
	return c.do(ctx, http.MethodPatch, matchPath(matchID, fmt.Sprintf("/members/%d/permissions", tgID)), body, nil)
}

func (c *APIClient) Repeat(ctx context.Context, matchID int64) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/repeat"), nil, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *APIClient) GenerateTeams(ctx context.Context, matchID int64) ([]match.TeamVariant, error) {
	var out variantsResponse
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/teams/generate"), nil, &out); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

func (c *APIClient) SelectTeams(ctx context.Context, matchID int64, params SelectTeamsParams) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/teams/select"), params, nil)
}

func (c *APIClient) CustomTeams(ctx context.Context, matchID int64, params CustomTeamsParams) (string, error) {
	var out whyResponse
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/teams/custom"), params, &out); err != nil {
		return "", err
	}
	return out.WhyText, nil
}

func (c *APIClient) RevertTeams(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/teams/revert"), nil, nil)
}

func (c *APIClient) Start(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/start"), nil, nil)
}

func (c *APIClient) Finish(ctx context.Context, matchID int64, isButtGame bool) error {
	body := map[string]bool{"is_butt_game": isButtGame}
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/finish"), body, nil)
}

func (c *APIClient) NewSegment(ctx context.Context, matchID int64, isButtGame bool) (NewSegmentResult, error) {
	var out NewSegmentResult
	body := map[string]bool{"is_butt_game": isButtGame}
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/segments/new"), body, &out); err != nil {
		return NewSegmentResult{}, err
	}
	return out, nil
}

func (c *APIClient) DeleteSegment(ctx context.Context, matchID, segmentID int64) error {
	return c.do(ctx, http.MethodDelete, matchPath(matchID, fmt.Sprintf("/segments/%d", segmentID)), nil, nil)
}

func (c *APIClient) Goal(ctx context.Context, matchID int64, params GoalParams) (int64, error) {
	var out eventResponse
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/events/goal"), params, &out); err != nil {
		return 0, err
	}
	return out.EventID, nil
}

func (c *APIClient) OwnGoal(ctx context.Context, matchID int64, team match.Team) (int64, error) {
	var out eventResponse
	body := map[string]match.Team{"team": team}
	if err := c.do(ctx, http.MethodPost, matchPath(matchID, "/events/own-goal"), body, &out); err != nil {
		return 0, err
	}
	return out.EventID, nil
}

func (c *APIClient) PatchEvent(ctx context.Context, matchID, eventID int64, patch EventPatch) error {
	return c.do(ctx, http.MethodPatch, matchPath(matchID, fmt.Sprintf("/events/%d", eventID)), patch, nil)
}

func (c *APIClient) DeleteEvent(ctx context.Context, matchID, eventID int64) error {
	return c.do(ctx, http.MethodDelete, matchPath(matchID, fmt.Sprintf("/events/%d", eventID)), nil, nil)
}

func (c *APIClient) PayerRequest(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/request"), nil, nil)
}

func (c *APIClient) PayerOffer(ctx context.Context, matchID, tgID int64) error {
	body := map[string]int64{"tg_id": tgID}
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/offer"), body, nil)
}

func (c *APIClient) PayerRespond(ctx context.Context, matchID int64, accepted bool) error {
	body := map[string]bool{"accepted": accepted}
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/respond"), body, nil)
}

func (c *APIClient) PayerSelect(ctx context.Context, matchID, tgID int64) error {
	body := map[string]int64{"payer_tg_id": tgID}
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/select"), body, nil)
}

func (c *APIClient) PayerClear(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/clear"), nil, nil)
}

func (c *APIClient) PayerDetails(ctx context.Context, matchID int64, details PayerDetails) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payer/details"), details, nil)
}

func (c *APIClient) MarkPaid(ctx context.Context, matchID int64) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payments/mark-paid"), nil, nil)
}

func (c *APIClient) ConfirmPayment(ctx context.Context, matchID, tgID int64, approved bool) error {
	body := struct {
		TgID     int64 `json:"tg_id"`
		Approved bool  `json:"approved"`
	}{tgID, approved}
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/payments/confirm"), body, nil)
}

func (c *APIClient) SubmitFeedback(ctx context.Context, matchID int64, record FeedbackRecord) error {
	return c.do(ctx, http.MethodPost, matchPath(matchID, "/feedback"), record, nil)
}

func (c *APIClient) GetFeedback(ctx context.Context, matchID int64) (FeedbackRecord, error) {
	var out FeedbackRecord
	if err := c.do(ctx, http.MethodGet, matchPath(matchID, "/feedback"), nil, &out); err != nil {
		return FeedbackRecord{}, err
	}
	return out, nil
}

func (c *APIClient) AdminPatchSegment(ctx context.Context, matchID, segmentID int64, patch SegmentPatch) error {
	path := fmt.Sprintf("/admin/matches/%d/segments/%d", matchID, segmentID)
	return c.do(ctx, http.MethodPatch, path, patch, nil)
}
