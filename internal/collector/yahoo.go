package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ForecastLens/internal/httpclient"
	"ForecastLens/internal/model"

	"github.com/guregu/null/v6"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher reads daily bars from the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *httpclient.Client
	SymbolMap map[string]string // index aliases to Yahoo tickers
}

// NewYahooFetcher creates a Yahoo fetcher, optionally behind a proxy.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  httpclient.New(httpclient.Options{ProxyURL: proxyURL, RequestsPerSec: 2}),
		SymbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"SPX500": "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Timezone string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []null.Float `json:"open"`
			High   []null.Float `json:"high"`
			Low    []null.Float `json:"low"`
			Close  []null.Float `json:"close"`
			Volume []null.Float `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func value(vs []null.Float, i int) null.Float {
	if i >= len(vs) {
		return null.Float{}
	}
	return vs[i]
}

// FetchDailyBars returns daily bars for rng (Yahoo range syntax, default 2y),
// oldest first. Bar times are the exchange's calendar date at midnight UTC.
// Days without a close are skipped.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol, rng string) ([]model.OHLCV, error) {
	if rng == "" {
		rng = "2y"
	}
	q := url.Values{"interval": {"1d"}, "range": {rng}}
	endpoint := f.BaseURL + "/v8/finance/chart/" + url.PathEscape(f.ticker(symbol)) + "?" + q.Encode()

	body, err := f.Client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		return req, nil
	})
	if err != nil {
		if se, ok := httpclient.IsStatus(err); ok && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("yahoo api error: %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	bars := resp.Chart.Result[0].bars()
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func (r chartResult) bars() []model.OHLCV {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	loc := time.UTC
	if r.Meta.Timezone != "" {
		if l, err := time.LoadLocation(r.Meta.Timezone); err == nil {
			loc = l
		}
	}

	quote := r.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c := value(quote.Close, i)
		if !c.Valid || c.Float64 == 0 {
			continue
		}
		y, m, d := time.Unix(ts, 0).In(loc).Date()
		bars = append(bars, model.OHLCV{
			Time:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Open:   value(quote.Open, i).Float64,
			High:   value(quote.High, i).Float64,
			Low:    value(quote.Low, i).Float64,
			Close:  c.Float64,
			Volume: value(quote.Volume, i).Float64,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}
