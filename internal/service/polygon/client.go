package polygon

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	"Epoch/internal/service/ratelimit"
	phttp "Epoch/pkg/http"
)

// Client implements MarketData over the Polygon REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *phttp.Client
	limiter *ratelimit.Limiter
	rps     float64
	burst   float64
}

func NewClient(apiKey, baseURL string, requestsPerSec float64, burst int) drepo.MarketData {
	if requestsPerSec <= 0 {
		requestsPerSec = 4
	}
	if burst <= 0 {
		burst = int(requestsPerSec)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    phttp.NewClient(phttp.WithTimeout(15 * time.Second)),
		limiter: ratelimit.New(),
		rps:     requestsPerSec,
		burst:   float64(burst),
	}
}

// tfSpan maps a warehouse timeframe onto Polygon's multiplier/timespan pair.
func tfSpan(tf drepo.Timeframe) (int, string, error) {
	switch tf {
	case drepo.TF5m:
		return 5, "minute", nil
	case drepo.TF15m:
		return 15, "minute", nil
	case drepo.TF1h:
		return 1, "hour", nil
	case drepo.TF4h:
		return 4, "hour", nil
	case drepo.TF1d:
		return 1, "day", nil
	case drepo.TF1w:
		return 1, "week", nil
	case drepo.TF1mo:
		return 1, "month", nil
	}
	return 0, "", fmt.Errorf("unsupported timeframe %q", tf)
}

type aggsResponse struct {
	Status  string `json:"status"`
	Results []struct {
		T int64   `json:"t"` // ms
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	} `json:"results"`
}

func (c *Client) wait(ctx context.Context, key string) error {
	for !c.limiter.Allow(key, c.burst, c.rps) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// FetchBars fetches aggregate bars for one ticker and timeframe, oldest first.
func (c *Client) FetchBars(ctx context.Context, ticker string, tf drepo.Timeframe, from, to time.Time) ([]models.Bar, error) {
	mult, span, err := tfSpan(tf)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx, "aggs"); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%d/%d",
		c.baseURL, ticker, mult, span, from.UnixMilli(), to.UnixMilli())
	var resp aggsResponse
	err = c.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    u,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"sort":     {"asc"},
			"limit":    {"50000"},
			"apiKey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("polygon aggs %s %s: %w", ticker, tf, err)
	}

	bars := make([]models.Bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, models.Bar{
			Bucket: time.UnixMilli(r.T).UTC(),
			Ticker: ticker,
			Open:   r.O,
			High:   r.H,
			Low:    r.L,
			Close:  r.C,
			Volume: r.V,
		})
	}
	return bars, nil
}

type contractsResponse struct {
	Results []struct {
		StrikePrice float64 `json:"strike_price"`
	} `json:"results"`
}

// FetchOptionStrikes returns up to limit distinct strikes nearest the
// given price, closest first.
func (c *Client) FetchOptionStrikes(ctx context.Context, ticker string, near float64, limit int) ([]float64, error) {
	if err := c.wait(ctx, "contracts"); err != nil {
		return nil, err
	}

	var resp contractsResponse
	err := c.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    c.baseURL + "/v3/reference/options/contracts",
		QueryParams: map[string][]string{
			"underlying_ticker": {ticker},
			"contract_type":     {"call"},
			"strike_price.gte":  {strconv.FormatFloat(near*0.85, 'f', 2, 64)},
			"strike_price.lte":  {strconv.FormatFloat(near*1.15, 'f', 2, 64)},
			"limit":             {"1000"},
			"apiKey":            {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("polygon contracts %s: %w", ticker, err)
	}

	seen := make(map[float64]struct{}, len(resp.Results))
	strikes := make([]float64, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.StrikePrice <= 0 {
			continue
		}
		if _, ok := seen[r.StrikePrice]; ok {
			continue
		}
		seen[r.StrikePrice] = struct{}{}
		strikes = append(strikes, r.StrikePrice)
	}
	sort.Slice(strikes, func(i, j int) bool {
		di, dj := math.Abs(strikes[i]-near), math.Abs(strikes[j]-near)
		if di != dj {
			return di < dj
		}
		return strikes[i] < strikes[j]
	})
	if limit > 0 && len(strikes) > limit {
		strikes = strikes[:limit]
	}
	return strikes, nil
}
