package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curve-desk/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fredBaseURL     = "https://api.stlouisfed.org"
	fredMissingMark = "."
	fredDateLayout  = "2006-01-02"
)

// ErrMissingAPIKey is returned when FREDProvider has no API key configured.
var ErrMissingAPIKey = errors.New("fred: api key not configured")

// FREDProvider fetches constant-maturity Treasury yields from the St. Louis
// Fed FRED API.
type FREDProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	grid    *domain.Grid
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewFREDProvider creates a provider for the default grid. FRED allows 120
// requests per minute per key.
func NewFREDProvider(tracer trace.Tracer, apiKey, baseURL string) *FREDProvider {
	if baseURL == "" {
		baseURL = fredBaseURL
	}
	return &FREDProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		grid:    domain.DefaultGrid,
		tracer:  tracer,
		limiter: PerMinute(120, 10),
	}
}

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchLatest returns the newest numeric observation for every grid
// maturity, keyed by label. Series FRED reports no value for are left out so
// the caller can name them as missing.
func (p *FREDProvider) FetchLatest(ctx context.Context) (map[string]domain.Observation, error) {
	ctx, span := p.tracer.Start(ctx, "fred.fetch-latest")
	defer span.End()

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	result := make(map[string]domain.Observation, p.grid.Len())
	for _, label := range p.grid.Labels() {
		seriesID, ok := domain.FREDSeriesID[label]
		if !ok {
			continue
		}
		obs, found, err := p.fetchSeries(ctx, seriesID)
		if err != nil {
			return nil, fmt.Errorf("fetch %s (%s): %w", label, seriesID, err)
		}
		if !found {
			log.Printf("fred: no numeric observation for %s (%s)", label, seriesID)
			continue
		}
		result[label] = obs
	}

	span.SetAttributes(attribute.Int("fred.series", len(result)))
	return result, nil
}

func (p *FREDProvider) fetchSeries(ctx context.Context, seriesID string) (domain.Observation, bool, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", p.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", "10")

	body, err := p.doRequest(ctx, p.baseURL+"/fred/series/observations?"+q.Encode())
	if err != nil {
		return domain.Observation{}, false, err
	}

	var raw fredResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Observation{}, false, fmt.Errorf("parse observations: %w", err)
	}
	obs, ok := latestObservation(seriesID, raw)
	return obs, ok, nil
}

// latestObservation picks the first parseable entry of a newest-first
// response. FRED marks holidays and gaps with ".".
func latestObservation(seriesID string, raw fredResponse) (domain.Observation, bool) {
	for _, o := range raw.Observations {
		v := strings.TrimSpace(o.Value)
		if v == "" || v == fredMissingMark {
			continue
		}
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse(fredDateLayout, o.Date)
		if err != nil {
			continue
		}
		return domain.Observation{SeriesID: seriesID, Date: date.UTC(), Value: value}, true
	}
	return domain.Observation{}, false
}

func (p *FREDProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fred API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
