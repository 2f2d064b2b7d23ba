package repositories

import "github.com/vsinha/linealloc/pkg/domain/entities"

// ScenarioRepository provides access to the demand, capacity and rate tables
// of one scenario. Getters return copies; callers may modify them freely.
type ScenarioRepository interface {
	LoadScenario(
		demand entities.DemandTable,
		capacity entities.CapacityTable,
		rates entities.RateTable,
	) error
	GetDemand() (entities.DemandTable, error)
	GetCapacity() (entities.CapacityTable, error)
	GetRates() (entities.RateTable, error)
}
