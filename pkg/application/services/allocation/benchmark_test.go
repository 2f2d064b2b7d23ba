package allocation

import (
	"context"
	"fmt"
	"testing"

	testhelpers "github.com/vsinha/linealloc/pkg/application/services/testing"
)

func BenchmarkService_SingleSlot(b *testing.B) {
	ctx := context.Background()
	s := testhelpers.BuildFactoryScenario()
	service := newTestService(PolicyCapacityBounded, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.Solve(ctx, s.Demand, s.Capacity, s.Rates); err != nil {
			b.Fatalf("Solve failed: %v", err)
		}
	}
}

func BenchmarkService_Grid(b *testing.B) {
	sizes := []struct {
		periods, categories, lines, products int
	}{
		{1, 1, 4, 8},
		{4, 2, 4, 8},
		{8, 2, 6, 12},
	}

	for _, size := range sizes {
		name := fmt.Sprintf("%dp_%dc_%dl_%dsku", size.periods, size.categories, size.lines, size.products)
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			s := testhelpers.BuildGridScenario(size.periods, size.categories, size.lines, size.products)
			service := newTestService(PolicyCapacityBounded, nil)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := service.Solve(ctx, s.Demand, s.Capacity, s.Rates); err != nil {
					b.Fatalf("Solve failed: %v", err)
				}
			}
		})
	}
}
