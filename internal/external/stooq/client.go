package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/httputil"
	"github.com/wonny/prism/pkg/logger"
)

// Client downloads daily bars from a Stooq-compatible CSV endpoint.
// All Stooq traffic goes through this client.
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	directoryURL string
	suffix       string
}

// NewClient creates a new Stooq client
func NewClient(cfg config.StooqConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log.Component("stooq"),
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		directoryURL: cfg.DirectoryURL,
		suffix:       strings.ToLower(cfg.Suffix),
	}
}

// Name identifies this source in logs and metrics
func (c *Client) Name() string {
	return "stooq"
}

// FetchDaily downloads the daily bar history for one symbol
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	fullURL := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d",
		c.baseURL,
		url.QueryEscape(c.remoteSymbol(symbol)),
		from.Format("20060102"),
		to.Format("20060102"),
	)

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	bars, skipped, err := parseDailyCSV(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"bars":    len(bars),
		"skipped": skipped,
	}).Debug("Fetched daily bars")
	return bars, nil
}

// remoteSymbol converts a canonical symbol to Stooq's form, lowercase
// with a market suffix
func (c *Client) remoteSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if c.suffix != "" && !strings.Contains(s, ".") {
		s += c.suffix
	}
	return s
}

// parseDailyCSV parses a Date,Open,High,Low,Close,Volume download.
// Malformed rows are skipped and counted, not fatal.
func parseDailyCSV(body []byte) ([]contracts.Bar, int, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), "no data") {
		return nil, 0, fmt.Errorf("no data returned")
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("empty response")
	}

	header := records[0]
	if len(header) < 5 || !strings.EqualFold(strings.TrimSpace(header[0]), "Date") {
		return nil, 0, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	var (
		bars    []contracts.Bar
		skipped int
	)
	for _, record := range records[1:] {
		if len(record) < 5 {
			skipped++
			continue
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			skipped++
			continue
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err != nil {
			skipped++
			continue
		}

		// Indices and some instruments come without a volume column
		var volume float64
		if len(record) > 5 {
			volume, _ = strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
		}

		bars = append(bars, contracts.Bar{
			Date:   date,
			Close:  closePrice,
			Volume: volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, skipped, nil
}
