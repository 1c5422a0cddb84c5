// Package quote fetches fund estimates from the public fund valuation feed.
//
// The feed answers GET {base}/js/{code}.js with a JSONP document:
//
//	jsonpgz({"fundcode":"002834","name":"...","jzrq":"2026-01-22",
//	  "dwjz":"1.2345","gsz":"1.2400","gszzl":"0.45","gztime":"2026-01-23 15:00"});
//
// dwjz is the last official net value, gsz the intraday estimate, gszzl the
// estimated change percent and gztime the estimate time.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

// ErrNoEstimate is returned when the feed has no estimate for a fund
var ErrNoEstimate = errors.New("no estimate available")

// Client reads quotes from the feed
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient creates a new Client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Quote fetches the latest estimate of a fund
func (c *Client) Quote(ctx context.Context, holdingID string) (*domain.Quote, error) {
	// rt defeats intermediate caches
	addr := fmt.Sprintf("%s/js/%s.js?rt=%d", c.baseURL, url.PathEscape(holdingID), c.now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", holdingID, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", holdingID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %s", holdingID, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", holdingID, err)
	}

	return parse(holdingID, body)
}

func parse(holdingID string, body []byte) (*domain.Quote, error) {
	payload, err := unwrapJSONP(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", holdingID, err)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", holdingID, err)
	}

	price, err := decimalAt(doc, "$.gsz")
	if err != nil {
		return nil, fmt.Errorf("%s estimate: %w", holdingID, err)
	}
	if !price.Valid || !price.Decimal.IsPositive() {
		return nil, fmt.Errorf("%s: %w", holdingID, ErrNoEstimate)
	}
	asOf := stringAt(doc, "$.gztime")
	if asOf == "" {
		return nil, fmt.Errorf("%s: %w: missing estimate time", holdingID, ErrNoEstimate)
	}
	prevClose, err := decimalAt(doc, "$.dwjz")
	if err != nil {
		return nil, fmt.Errorf("%s net value: %w", holdingID, err)
	}

	return &domain.Quote{
		HoldingID:     holdingID,
		Name:          stringAt(doc, "$.name"),
		Price:         price.Decimal,
		PreviousClose: prevClose,
		ChangePercent: stringAt(doc, "$.gszzl"),
		AsOf:          asOf,
	}, nil
}

// unwrapJSONP returns what lies between the first "(" and the last ")".
// Fund names may contain parentheses themselves.
func unwrapJSONP(body []byte) ([]byte, error) {
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("unexpected response %q", truncate(body, 64))
	}
	payload := bytes.TrimSpace(body[start+1 : end])
	if len(payload) == 0 {
		return nil, ErrNoEstimate
	}
	return payload, nil
}

// lookup returns nil when the path does not resolve
func lookup(doc any, path string) any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	return v
}

func stringAt(doc any, path string) string {
	switch v := lookup(doc, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return ""
	}
}

// decimalAt reads a number the feed may send either as a string or a number.
// Missing or empty values are unset.
func decimalAt(doc any, path string) (decimal.NullDecimal, error) {
	switch v := lookup(doc, path).(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("invalid number %q", s)
		}
		return decimal.NewNullDecimal(d), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("unexpected value %v", v)
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
