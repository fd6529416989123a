package stooq

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/prism/internal/contracts"
)

// FetchDirectory scrapes the HTML symbol directory page and returns
// the listed tickers, canonical uppercase symbols without the market
// suffix, deduplicated and sorted.
func (c *Client) FetchDirectory(ctx context.Context) ([]*contracts.Ticker, error) {
	if c.directoryURL == "" {
		return nil, fmt.Errorf("no directory URL configured")
	}

	body, err := c.httpClient.GetBody(ctx, c.directoryURL)
	if err != nil {
		return nil, fmt.Errorf("download directory: %w", err)
	}

	tickers, err := c.parseDirectoryHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}

	c.logger.WithField("tickers", len(tickers)).Info("Fetched symbol directory")
	return tickers, nil
}

// parseDirectoryHTML extracts symbol and name pairs from the first
// two columns of the directory table rows
func (c *Client) parseDirectoryHTML(body []byte) ([]*contracts.Ticker, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tickers []*contracts.Ticker

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		symbol := c.canonicalSymbol(cells.Eq(0).Text())
		if symbol == "" || seen[symbol] {
			return
		}

		name := strings.TrimSpace(cells.Eq(1).Text())

		seen[symbol] = true
		tickers = append(tickers, &contracts.Ticker{
			Symbol: symbol,
			Name:   name,
		})
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no symbols found in directory page")
	}

	sort.Slice(tickers, func(i, j int) bool {
		return tickers[i].Symbol < tickers[j].Symbol
	})
	return tickers, nil
}

// canonicalSymbol uppercases a scraped symbol and strips the market
// suffix so it matches the symbols used in CSV ingests
func (c *Client) canonicalSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" || symbol == "SYMBOL" {
		return ""
	}
	if c.suffix != "" {
		symbol = strings.TrimSuffix(symbol, strings.ToUpper(c.suffix))
	}
	return symbol
}
