package memory

import (
	"sync"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory scenario storage
type ScenarioRepository struct {
	demand   entities.DemandTable
	capacity entities.CapacityTable
	rates    entities.RateTable
	mutex    sync.RWMutex
}

// NewScenarioRepository creates a new in-memory scenario repository
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{
		demand:   make(entities.DemandTable),
		capacity: make(entities.CapacityTable),
		rates:    make(entities.RateTable),
	}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// LoadScenario replaces the stored tables with copies of the given ones
func (r *ScenarioRepository) LoadScenario(
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.demand = demand.Clone()
	r.capacity = capacity.Clone()
	r.rates = rates.Clone()
	return nil
}

// GetDemand returns a copy of the demand table
func (r *ScenarioRepository) GetDemand() (entities.DemandTable, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.demand.Clone(), nil
}

// GetCapacity returns a copy of the capacity table
func (r *ScenarioRepository) GetCapacity() (entities.CapacityTable, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.capacity.Clone(), nil
}

// GetRates returns a copy of the rate table
func (r *ScenarioRepository) GetRates() (entities.RateTable, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.rates.Clone(), nil
}
