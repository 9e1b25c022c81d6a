package metric

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/merchantdash/internal/daterange"
)

// maxConcurrentFetches bounds how many cards fetch at the same time.
const maxConcurrentFetches = 5

// Board is the set of cards shown on the dashboard. Cards refresh
// concurrently and independently; one card failing does not affect another.
type Board struct {
	src   Source
	cards []*Card
}

// NewBoard builds a board with a card for each definition (all of
// Definitions when none are given).
func NewBoard(src Source, currencySymbol string, defs ...Definition) *Board {
	if len(defs) == 0 {
		defs = Definitions
	}
	b := &Board{src: src}
	for _, d := range defs {
		b.cards = append(b.cards, NewCard(d, currencySymbol))
	}
	return b
}

// Card returns the card for a metric id.
func (b *Board) Card(id string) (*Card, bool) {
	for _, c := range b.cards {
		if c.def.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Refresh resolves key and refreshes every card, returning states in
// display order.
func (b *Board) Refresh(ctx context.Context, key daterange.Key) []State {
	r := daterange.ResolveNow(key)
	states := make([]State, len(b.cards))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, c := range b.cards {
		g.Go(func() error {
			states[i] = c.Refresh(ctx, b.src, key, r)
			return nil
		})
	}
	_ = g.Wait()
	return states
}

// RefreshOne refreshes a single card.
func (b *Board) RefreshOne(ctx context.Context, id string, key daterange.Key) (State, bool) {
	c, ok := b.Card(id)
	if !ok {
		return State{}, false
	}
	return c.Refresh(ctx, b.src, key, daterange.ResolveNow(key)), true
}

// Snapshot returns the stored state of every card without fetching.
func (b *Board) Snapshot() []State {
	states := make([]State, len(b.cards))
	for i, c := range b.cards {
		states[i] = c.State()
	}
	return states
}
