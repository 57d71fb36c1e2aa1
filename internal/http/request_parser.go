package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

var errRequired = errors.New("required")

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// top-level fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the request body, capped at maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Has reports whether the body carried key, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Get returns a sanitised string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpense builds an expense from the body fields amount, category,
// description and date. A missing date means today.
func ParseExpense(p *RequestBodyParser, today core.Date) (core.Expense, error) {
	amountStr := p.Get("amount")
	if amountStr == "" {
		return core.Expense{}, &core.ValidationError{Field: "amount", Err: errRequired}
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: "amount", Err: err}
	}

	category := p.Get("category")
	if category == "" {
		return core.Expense{}, &core.ValidationError{Field: "category", Err: errRequired}
	}

	date := today
	if v := p.Get("date"); v != "" {
		date, err = core.ParseDate(v)
		if err != nil {
			return core.Expense{}, &core.ValidationError{Field: "date", Err: err}
		}
	}

	return core.Expense{
		Amount:      amount,
		Category:    category,
		Description: p.Get("description"),
		Date:        date,
	}, nil
}

// ParseBudget reads the budget field.
func ParseBudget(p *RequestBodyParser) (core.Money, error) {
	v := p.Get("budget")
	if v == "" {
		return core.Money{}, &core.ValidationError{Field: "budget", Err: errRequired}
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: "budget", Err: err}
	}
	return m, nil
}

// ParseListQuery reads q, category and sort. Sort defaults to newest first.
// The search text is kept as typed, surrounding spaces included.
func ParseListQuery(query url.Values) (analytics.Query, error) {
	q := analytics.Query{
		Text:     stripControl(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
		Sort:     strings.TrimSpace(query.Get("sort")),
	}
	if q.Sort == "" {
		q.Sort = analytics.SortDateDesc
	}
	if !analytics.IsValidSort(q.Sort) {
		return analytics.Query{}, fmt.Errorf("invalid sort %q: must be one of %s, %s, %s, %s", q.Sort,
			analytics.SortDateDesc, analytics.SortDateAsc, analytics.SortAmountDesc, analytics.SortAmountAsc)
	}
	return q, nil
}

// ParseReferenceTime returns the day named by the date parameter, or now when
// it is absent.
func ParseReferenceTime(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return now, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}
