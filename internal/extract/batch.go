package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// FloorPick is one floor's share of a merged item.
type FloorPick struct {
	Floor string `json:"floor"`
	Pick  int    `json:"pick"`
}

// MergedItem is one medication summed across every page of a batch.
type MergedItem struct {
	Name      string      `json:"name"`
	Strength  string      `json:"strength"`
	Form      string      `json:"form"`
	TotalPick int         `json:"total_pick"`
	Floors    []FloorPick `json:"floors"`
	Warnings  []string    `json:"warnings,omitempty"`
	Records   int         `json:"records"`
}

// BatchResult holds per-page results and the merged pick list.
type BatchResult struct {
	ID       string        `json:"id"`
	Pages    []*PageResult `json:"pages"`
	Items    []MergedItem  `json:"items"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ExtractBatch extracts pages concurrently, at most Workers at a time, and
// merges the records once every page is done. A page without table structure
// adds a batch warning; any other page error aborts the batch.
func (e *Engine) ExtractBatch(ctx context.Context, pages []Page) (*BatchResult, error) {
	results := make([]*PageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, p := range pages {
		i, p := i, p
		if p.ID == "" {
			p.ID = fmt.Sprintf("page-%d", i+1)
		}
		g.Go(func() error {
			res, err := e.Extract(gctx, p)
			if err != nil && !errors.Is(err, ErrStructureNotFound) {
				return fmt.Errorf("page %s: %w", p.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		ID:    uuid.NewString(),
		Pages: results,
		Items: MergePages(results),
	}
	for _, r := range results {
		if r != nil && r.Mode == ModeNone {
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("page %s: %s", r.PageID, ErrStructureNotFound))
		}
	}
	logging.Logger().Info("batch extracted", "batch", batch.ID, "pages", len(pages), "items", len(batch.Items))
	return batch, nil
}

// MergePages groups records by lowercased (name, strength, form) and sums
// picks. Items and floors keep first-seen order.
func MergePages(pages []*PageResult) []MergedItem {
	var items []MergedItem
	index := map[string]int{}
	for _, p := range pages {
		if p == nil {
			continue
		}
		for _, r := range p.Records {
			key := strings.ToLower(strings.Join([]string{r.Name(), r.Strength(), r.Form()}, "\x00"))
			i, ok := index[key]
			if !ok {
				i = len(items)
				index[key] = i
				items = append(items, MergedItem{
					Name:     TitleCase(r.Name()),
					Strength: r.Strength(),
					Form:     r.Form(),
				})
			}
			it := &items[i]
			it.TotalPick += r.PickAmount()
			it.Records++
			addFloor(it, r.Floor(), r.PickAmount())
			for _, w := range r.Warnings() {
				if !contains(it.Warnings, w) {
					it.Warnings = append(it.Warnings, w)
				}
			}
		}
	}
	return items
}

func addFloor(it *MergedItem, floor string, pick int) {
	for i := range it.Floors {
		if it.Floors[i].Floor == floor {
			it.Floors[i].Pick += pick
			return
		}
	}
	it.Floors = append(it.Floors, FloorPick{Floor: floor, Pick: pick})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
