package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/adsctl/optimizer/internal/core/domain"
)

const dateLayout = "2006-01-02"

// SourceConfig holds settings for the REST facade of the Ads API.
type SourceConfig struct {
	Endpoint       string
	AccountID      string
	DeveloperToken string
	PageSize       int
	Timeout        time.Duration
}

// HTTPSource talks to the Ads REST facade. Error responses are mapped onto
// the canonical gRPC status vocabulary before they leave this type, and all
// micros amounts are converted to currency units, so the rest of the system
// sees one error and one money representation.
type HTTPSource struct {
	cfg    SourceConfig
	client *http.Client
}

// NewHTTPSource creates a source for one account.
func NewHTTPSource(cfg SourceConfig) *HTTPSource {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Wire payloads. Monetary fields arrive as micros, mirroring the upstream
// API.

type campaignPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	ChannelType  string `json:"channelType"`
	BudgetMicros int64  `json:"budgetMicros"`
}

type campaignListPayload struct {
	Campaigns     []campaignPayload `json:"campaigns"`
	NextPageToken string            `json:"nextPageToken"`
}

type metricsRowPayload struct {
	CampaignID       string  `json:"campaignId"`
	CampaignName     string  `json:"campaignName"`
	Date             string  `json:"date"`
	Impressions      float64 `json:"impressions"`
	Clicks           float64 `json:"clicks"`
	CostMicros       int64   `json:"costMicros"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversionsValue"`
	Ctr              float64 `json:"ctr"`
	AverageCpcMicros int64   `json:"averageCpcMicros"`
	AverageCpmMicros int64   `json:"averageCpmMicros"`
	BudgetMicros     int64   `json:"budgetMicros"`
}

type metricsListPayload struct {
	Rows          []metricsRowPayload `json:"rows"`
	NextPageToken string              `json:"nextPageToken"`
}

type accountPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"`
	TimeZone     string `json:"timeZone"`
}

// ListCampaigns returns the account's campaigns. Only enabled campaigns are
// returned unless includePaused is set.
func (s *HTTPSource) ListCampaigns(ctx context.Context, includePaused bool) ([]*domain.Campaign, error) {
	statuses := []string{string(domain.CampaignStatusEnabled)}
	if includePaused {
		statuses = append(statuses, string(domain.CampaignStatusPaused))
	}

	var campaigns []*domain.Campaign
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("status", strings.Join(statuses, ","))
		q.Set("pageSize", strconv.Itoa(s.cfg.PageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page campaignListPayload
		if err := s.getJSON(ctx, s.resourceURL("campaigns", q), &page); err != nil {
			return nil, err
		}

		for _, c := range page.Campaigns {
			campaigns = append(campaigns, &domain.Campaign{
				ID:           c.ID,
				AccountID:    s.cfg.AccountID,
				Name:         c.Name,
				Status:       domain.CampaignStatus(c.Status),
				ChannelType:  c.ChannelType,
				BudgetMicros: c.BudgetMicros,
			})
		}

		if page.NextPageToken == "" {
			return campaigns, nil
		}
		pageToken = page.NextPageToken
	}
}

// DailyMetrics returns daily metrics rows on or after since.
func (s *HTTPSource) DailyMetrics(ctx context.Context, since time.Time) ([]*domain.CampaignMetrics, error) {
	var rows []*domain.CampaignMetrics
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("since", since.Format(dateLayout))
		q.Set("pageSize", strconv.Itoa(s.cfg.PageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page metricsListPayload
		if err := s.getJSON(ctx, s.resourceURL("metrics/daily", q), &page); err != nil {
			return nil, err
		}

		for _, r := range page.Rows {
			row, err := s.toMetrics(r)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}

		if page.NextPageToken == "" {
			return rows, nil
		}
		pageToken = page.NextPageToken
	}
}

// CampaignSnapshot returns lookback-window aggregate performance for one
// campaign, or (nil, nil) when the campaign has no data.
func (s *HTTPSource) CampaignSnapshot(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error) {
	var row metricsRowPayload
	err := s.getJSON(ctx, s.resourceURL("campaigns/"+campaignID+"/snapshot", nil), &row)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.toMetrics(row)
}

// AccountInfo returns descriptive details for the account.
func (s *HTTPSource) AccountInfo(ctx context.Context) (*domain.Account, error) {
	var acc accountPayload
	if err := s.getJSON(ctx, s.resourceURL("", nil), &acc); err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:           acc.ID,
		Name:         acc.Name,
		CurrencyCode: acc.CurrencyCode,
		TimeZone:     acc.TimeZone,
	}, nil
}

// ApplyBidAdjustment scales the campaign's bids by pct percent.
func (s *HTTPSource) ApplyBidAdjustment(ctx context.Context, campaignID string, pct float64) error {
	body := map[string]float64{"percentage": pct}
	return s.postJSON(ctx, s.resourceURL("campaigns/"+campaignID+":adjustBids", nil), body)
}

// ApplyBudgetChange sets the campaign's daily budget in currency units.
func (s *HTTPSource) ApplyBudgetChange(ctx context.Context, campaignID string, budget float64) error {
	body := map[string]int64{"budgetMicros": domain.CurrencyToMicros(budget)}
	return s.postJSON(ctx, s.resourceURL("campaigns/"+campaignID+":setBudget", nil), body)
}

func (s *HTTPSource) toMetrics(r metricsRowPayload) (*domain.CampaignMetrics, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("parse metrics date %q: %w", r.Date, err)
	}
	return &domain.CampaignMetrics{
		AccountID:        s.cfg.AccountID,
		CampaignID:       r.CampaignID,
		CampaignName:     r.CampaignName,
		Date:             date,
		Impressions:      r.Impressions,
		Clicks:           r.Clicks,
		Cost:             domain.MicrosToCurrency(r.CostMicros),
		Conversions:      r.Conversions,
		ConversionsValue: r.ConversionsValue,
		CTR:              r.Ctr,
		AverageCPC:       domain.MicrosToCurrency(r.AverageCpcMicros),
		AverageCPM:       domain.MicrosToCurrency(r.AverageCpmMicros),
		Budget:           domain.MicrosToCurrency(r.BudgetMicros),
	}, nil
}

func (s *HTTPSource) resourceURL(resource string, q url.Values) string {
	u := strings.TrimRight(s.cfg.Endpoint, "/") + "/v1/accounts/" + domain.NormalizeCustomerID(s.cfg.AccountID)
	if resource != "" {
		u += "/" + resource
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (s *HTTPSource) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return s.do(req, out)
}

func (s *HTTPSource) postJSON(ctx context.Context, rawURL string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, nil)
}

func (s *HTTPSource) do(req *http.Request, out any) error {
	if s.cfg.DeveloperToken != "" {
		req.Header.Set("developer-token", s.cfg.DeveloperToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Transport-level failure: no status code to classify.
		return fmt.Errorf("ads api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusErrorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ads api response: %w", err)
	}
	return nil
}

// statusErrorFromResponse maps an HTTP error response onto a gRPC status
// error. A Retry-After header is carried along as a RetryInfo detail so the
// executor can honor the server's pacing.
func statusErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}

	var code codes.Code
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		code = codes.ResourceExhausted
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = codes.DeadlineExceeded
	case http.StatusInternalServerError:
		code = codes.Internal
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		code = codes.Unavailable
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	default:
		code = codes.Unknown
	}

	st := status.New(code, msg)
	if ra := retryAfterHeader(resp.Header); ra > 0 {
		if detailed, err := st.WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(ra)}); err == nil {
			st = detailed
		}
	}
	return st.Err()
}

func retryAfterHeader(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
