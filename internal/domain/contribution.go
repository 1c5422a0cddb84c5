package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Frequency is the cadence of a recurring contribution
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// frequencyLabels maps every accepted label, including the localized legacy
// ones, to its canonical frequency
var frequencyLabels = map[string]Frequency{
	"daily":   FrequencyDaily,
	"日定投":     FrequencyDaily,
	"weekly":  FrequencyWeekly,
	"周定投":     FrequencyWeekly,
	"monthly": FrequencyMonthly,
	"月定投":     FrequencyMonthly,
}

// amountNoise is stripped from string amounts such as "1,000元" or "¥50"
var amountNoise = strings.NewReplacer("元", "", "¥", "", ",", "", "，", "", " ", "")

// ContributionPlan is a recurring buy of a fixed money amount at a cadence.
// An amount of zero or less means no contribution is configured.
type ContributionPlan struct {
	Frequency Frequency       `json:"frequency"`
	Amount    decimal.Decimal `json:"amount"`
}

// Active reports whether the plan has a positive amount
func (p ContributionPlan) Active() bool {
	return p.Amount.IsPositive()
}

// ParseFrequency maps a canonical or legacy frequency label to a Frequency
func ParseFrequency(label string) (Frequency, error) {
	f, ok := frequencyLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidContribution, label)
	}
	return f, nil
}

// UnmarshalJSON normalizes every recognized contribution shape:
//   - frequency: a JSON string holding a canonical or localized label
//   - amount: absent, null, a JSON number, or a JSON string with currency
//     marks and thousands separators
//
// Any other shape is rejected with ErrInvalidContribution.
func (p *ContributionPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Frequency json.RawMessage `json:"frequency"`
		Amount    json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContribution, err)
	}

	frequency, err := parseFrequencyValue(raw.Frequency)
	if err != nil {
		return err
	}
	amount, err := parseAmountValue(raw.Amount)
	if err != nil {
		return err
	}

	p.Frequency = frequency
	p.Amount = amount
	return nil
}

func parseFrequencyValue(raw json.RawMessage) (Frequency, error) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", fmt.Errorf("%w: frequency must be a string, got %s", ErrInvalidContribution, describeRaw(raw))
	}
	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContribution, err)
	}
	return ParseFrequency(label)
}

func parseAmountValue(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidContribution, err)
		}
		s = amountNoise.Replace(strings.TrimSpace(s))
		if s == "" {
			return decimal.Zero, nil
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidContribution, s)
		}
		return amount, nil
	case c == '-' || (c >= '0' && c <= '9'):
		amount, err := decimal.NewFromString(string(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %s is not a number", ErrInvalidContribution, raw)
		}
		return amount, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: amount must be a number or string, got %s", ErrInvalidContribution, describeRaw(raw))
	}
}

func describeRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "nothing"
	}
	return string(raw)
}
