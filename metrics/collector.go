package metrics

import (
	"time"

	"github.com/google/uuid"
)

// SearchMetric summarizes one completed search run.
type SearchMetric struct {
	RunID             string
	Iterations        int
	MaxChildren       int
	ExplorationWeight float64
	Expansions        int
	Simulations       int
	TotalReward       float64
	Duration          time.Duration
}

type Collector interface {
	Start(iterations, maxChildren int, explorationWeight float64)
	AddExpansion()
	AddSimulation(reward float64)
	Complete() SearchMetric
}

type collector struct {
	metric    SearchMetric
	startTime time.Time
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start(iterations, maxChildren int, explorationWeight float64) {
	c.metric = SearchMetric{
		RunID:             uuid.NewString(),
		Iterations:        iterations,
		MaxChildren:       maxChildren,
		ExplorationWeight: explorationWeight,
	}
	c.startTime = time.Now()
}

func (c *collector) AddExpansion() {
	c.metric.Expansions++
}

func (c *collector) AddSimulation(reward float64) {
	c.metric.Simulations++
	c.metric.TotalReward += reward
}

func (c *collector) Complete() SearchMetric {
	c.metric.Duration = time.Since(c.startTime)
	return c.metric
}

// NewDummyCollector returns a collector that records nothing, for searches
// that do not need telemetry.
func NewDummyCollector() Collector {
	return dummyCollector{}
}

type dummyCollector struct{}

func (dummyCollector) Start(int, int, float64) {}
func (dummyCollector) AddExpansion()           {}
func (dummyCollector) AddSimulation(float64)   {}
func (dummyCollector) Complete() SearchMetric  { return SearchMetric{} }
