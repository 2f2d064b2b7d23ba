package allocation

import (
	"cmp"
	"slices"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// Index holds the finite sets the model is built over. Periods, categories
// and products come from demand keys; lines come from capacity keys.
type Index struct {
	Periods    []entities.Period
	Categories []entities.Category
	Products   []entities.Product
	Lines      []entities.Line
}

// BuildIndex derives the sorted, deduplicated index sets
func BuildIndex(demand entities.DemandTable, capacity entities.CapacityTable) Index {
	periods := make(map[entities.Period]struct{})
	categories := make(map[entities.Category]struct{})
	products := make(map[entities.Product]struct{})
	lines := make(map[entities.Line]struct{})

	for key := range demand {
		periods[key.Period] = struct{}{}
		categories[key.Category] = struct{}{}
		products[key.Product] = struct{}{}
	}
	for key := range capacity {
		lines[key.Line] = struct{}{}
	}

	return Index{
		Periods:    sortedSet(periods),
		Categories: sortedSet(categories),
		Products:   sortedSet(products),
		Lines:      sortedSet(lines),
	}
}

// RealLines returns the lines without the fallback line
func (ix Index) RealLines() []entities.Line {
	out := make([]entities.Line, 0, len(ix.Lines))
	for _, l := range ix.Lines {
		if !l.IsFallback() {
			out = append(out, l)
		}
	}
	return out
}

// Size returns the number of (period, category, line, product) combinations
func (ix Index) Size() int {
	return len(ix.Periods) * len(ix.Categories) * len(ix.Lines) * len(ix.Products)
}

func sortedSet[T cmp.Ordered](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
