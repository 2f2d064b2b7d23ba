package allocation

import (
	"fmt"
	"math"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/lp"
)

// Formulation is the built model plus the allocation key of every variable
type Formulation struct {
	Model *lp.Model
	Keys  []entities.RateKey // indexed like Model.Variables
	Index Index

	// Live is the number of variables that are not fixed at zero
	Live int
}

// BuildModel creates one hours variable per (period, category, line, product)
// over the full index product. A variable is fixed at zero when the line has
// no positive rate for the product, no stated capacity in the slot, or the
// product has no stated demand in the slot; such a variable could only add
// hours.
//
// Rows:
//   - demand coverage: Σ_line rate·hours >= demand, per stated demand key
//   - capacity ceiling: Σ_product hours <= capacity, per stated finite
//     capacity key, over products with a rate on that line
//
// The objective minimizes total hours.
func BuildModel(
	index Index,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) *Formulation {
	f := &Formulation{
		Model: lp.NewModel(lp.Minimize),
		Keys:  make([]entities.RateKey, 0, index.Size()),
		Index: index,
	}
	varOf := make(map[entities.RateKey]int, index.Size())

	for _, p := range index.Periods {
		for _, c := range index.Categories {
			for _, l := range index.Lines {
				for _, prod := range index.Products {
					key := entities.RateKey{Period: p, Category: c, Line: l, Product: prod}
					upper := 0.0
					if f.isLive(key, demand, capacity, rates) {
						upper = math.Inf(1)
						f.Live++
					}
					varOf[key] = f.Model.AddVariable(variableName(key), upper)
					f.Keys = append(f.Keys, key)
				}
			}
		}
	}

	objective := make([]lp.Term, len(f.Keys))
	for i := range f.Keys {
		objective[i] = lp.Term{Var: i, Coef: 1}
	}
	f.Model.Objective = objective

	for _, p := range index.Periods {
		for _, c := range index.Categories {
			for _, prod := range index.Products {
				dk := entities.DemandKey{Period: p, Category: c, Product: prod}
				qty, ok := demand[dk]
				if !ok {
					continue
				}
				var terms []lp.Term
				for _, l := range index.Lines {
					rk := dk.WithLine(l)
					if rate, ok := rates.RateOf(rk); ok {
						terms = append(terms, lp.Term{Var: varOf[rk], Coef: rate})
					}
				}
				f.Model.AddConstraint(fmt.Sprintf("demand[%s,%s,%s]", p, c, prod), terms, lp.GreaterEq, qty)
			}
		}
	}

	for _, p := range index.Periods {
		for _, c := range index.Categories {
			for _, l := range index.Lines {
				ck := entities.CapacityKey{Period: p, Category: c, Line: l}
				if !capacity.IsBounded(ck) {
					continue
				}
				var terms []lp.Term
				for _, prod := range index.Products {
					rk := ck.WithProduct(prod)
					if _, ok := rates.RateOf(rk); ok {
						terms = append(terms, lp.Term{Var: varOf[rk], Coef: 1})
					}
				}
				f.Model.AddConstraint(fmt.Sprintf("capacity[%s,%s,%s]", p, c, l), terms, lp.LessEq, capacity.HoursOf(ck))
			}
		}
	}

	return f
}

func (f *Formulation) isLive(
	key entities.RateKey,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) bool {
	if _, ok := rates.RateOf(key); !ok {
		return false
	}
	if _, ok := demand[key.Demand()]; !ok {
		return false
	}
	hours, ok := capacity[key.Capacity()]
	return ok && hours > 0
}

func variableName(key entities.RateKey) string {
	return fmt.Sprintf("hours[%s,%s,%s,%s]", key.Period, key.Category, key.Line, key.Product)
}
