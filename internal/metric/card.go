// Package metric implements the dashboard's metric cards: one analytics
// aggregate per card, formatted with its percent change for a date range.
package metric

import (
	"context"
	"log/slog"
	"sync"

	"github.com/simp-lee/merchantdash/internal/backend"
	"github.com/simp-lee/merchantdash/internal/daterange"
)

// LoadError is the inline text shown in place of a value that failed to load.
const LoadError = "Failed to load"

// ChangeType tags the direction of a percent change.
type ChangeType string

// Change directions.
const (
	Positive ChangeType = "positive"
	Negative ChangeType = "negative"
)

// Source yields analytics aggregates for a date range.
type Source interface {
	FetchAnalytics(ctx context.Context, r daterange.Range) (backend.Analytics, error)
}

// Definition is the fixed description of one card.
type Definition struct {
	ID            string
	Field         string
	Title         string
	Currency      bool
	DefaultValue  string
	DefaultChange string
	DefaultType   ChangeType
}

// Definitions lists the dashboard cards in display order.
var Definitions = []Definition{
	{ID: "total-revenue", Field: "totalRevenue", Title: "Total Revenue", Currency: true, DefaultValue: "0", DefaultChange: "0.0", DefaultType: Positive},
	{ID: "processed-orders", Field: "processedOrders", Title: "Processed Orders", DefaultValue: "0", DefaultChange: "0.0", DefaultType: Positive},
	{ID: "out-for-delivery", Field: "outForDelivery", Title: "Out for Delivery", DefaultValue: "0", DefaultChange: "0.0", DefaultType: Positive},
	{ID: "total-views", Field: "totalViews", Title: "Total Views", DefaultValue: "0", DefaultChange: "0.0", DefaultType: Positive},
	{ID: "avg-order-value", Field: "avgOrderValue", Title: "Avg. Order Value", Currency: true, DefaultValue: "0", DefaultChange: "0.0", DefaultType: Positive},
}

// Lookup finds a card definition by metric id.
func Lookup(id string) (Definition, bool) {
	for _, d := range Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// State is what a card renders.
type State struct {
	MetricID   string     `json:"metric_id"`
	Title      string     `json:"title"`
	Value      string     `json:"value"`
	Change     string     `json:"change"`
	ChangeType ChangeType `json:"change_type"`
	Error      string     `json:"error,omitempty"`
	Range      string     `json:"range,omitempty"`
}

// Card holds one metric's displayed state. Every refresh takes a new
// generation number; a result is only stored if no later refresh has started,
// so a slow response for an old range never overwrites a newer one.
type Card struct {
	def    Definition
	symbol string

	mu         sync.Mutex
	generation uint64
	state      State
}

// NewCard returns a card showing its default values.
func NewCard(def Definition, currencySymbol string) *Card {
	if currencySymbol == "" {
		currencySymbol = DefaultCurrencySymbol
	}
	c := &Card{def: def, symbol: currencySymbol}
	c.state = c.defaults()
	return c
}

// Definition returns the card's definition.
func (c *Card) Definition() Definition { return c.def }

// State returns the last stored state.
func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin starts a refresh and returns its generation.
func (c *Card) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// Complete turns a fetch result into a State and stores it if gen is still
// the latest generation. It reports whether the state was stored.
func (c *Card) Complete(gen uint64, a backend.Analytics, err error) (State, bool) {
	st := c.render(a, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return st, false
	}
	c.state = st
	return st, true
}

// Refresh fetches the card's metric for r and returns the rendered state.
// Failures never propagate: they yield the defaults plus LoadError.
func (c *Card) Refresh(ctx context.Context, src Source, key daterange.Key, r daterange.Range) State {
	gen := c.Begin()
	a, err := src.FetchAnalytics(ctx, r)
	if err != nil {
		slog.WarnContext(ctx, "metric fetch failed", "metric", c.def.ID, "range", string(key), "error", err)
	}
	st, stored := c.Complete(gen, a, err)
	if !stored {
		slog.DebugContext(ctx, "discarding stale metric result", "metric", c.def.ID, "generation", gen)
	}
	st.Range = string(key)
	return st
}

func (c *Card) render(a backend.Analytics, err error) State {
	if err != nil {
		st := c.defaults()
		st.Error = LoadError
		return st
	}
	change, kind := FormatChange(a.Change(c.def.Field))
	return State{
		MetricID:   c.def.ID,
		Title:      c.def.Title,
		Value:      FormatValue(a.Value(c.def.Field), c.def.Currency, c.symbol),
		Change:     change,
		ChangeType: kind,
	}
}

func (c *Card) defaults() State {
	value := c.def.DefaultValue
	if c.def.Currency {
		value = c.symbol + value
	}
	return State{
		MetricID:   c.def.ID,
		Title:      c.def.Title,
		Value:      value,
		Change:     c.def.DefaultChange,
		ChangeType: c.def.DefaultType,
	}
}
