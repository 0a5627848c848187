package analytics

import (
	"sort"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// DefaultTopN is the size of the ranking shown on a report.
const DefaultTopN = 5

// TopProducts sums quantity per product name and returns the n largest groups
// in descending order. Groups with equal totals are ordered by the input
// position at which their running total reached its final value, earliest
// first; for single-record groups that is their first appearance.
func (e *Engine) TopProducts(records []models.SaleRecord, n int) []models.ProductQuantity {
	if n <= 0 {
		return []models.ProductQuantity{}
	}

	type group struct {
		name    string
		qty     int
		settled int
	}

	index := make(map[string]int)
	groups := make([]group, 0)

	for i, rec := range records {
		if e.skip(rec, "ranking") {
			continue
		}

		pos, ok := index[rec.Name]
		if !ok {
			pos = len(groups)
			index[rec.Name] = pos
			groups = append(groups, group{name: rec.Name, settled: i})
		}

		if rec.Quantity > 0 {
			groups[pos].qty += rec.Quantity
			groups[pos].settled = i
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].qty != groups[b].qty {
			return groups[a].qty > groups[b].qty
		}
		return groups[a].settled < groups[b].settled
	})

	if len(groups) > n {
		groups = groups[:n]
	}

	out := make([]models.ProductQuantity, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.ProductQuantity{Name: g.name, Quantity: g.qty})
	}
	return out
}
