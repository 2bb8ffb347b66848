package searcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"montecarlo/inference"
	"montecarlo/metrics"
	"montecarlo/utils"
)

type Option func(m *MCTS)

// MCTS drives iterative refinement of a single free-text answer. Candidate
// answers are tree nodes, UCT decides which candidate to refine next, and
// the model serves as both the refinement generator and the quality oracle.
type MCTS struct {
	model             inference.Model
	settings          inference.RequestSettings
	iterations        int
	maxChildren       int
	explorationWeight float64
	rng               *rand.Rand
	logger            zerolog.Logger
	metrics           metrics.Collector
}

func WithIterations(iterations int) Option {
	return func(m *MCTS) {
		if iterations > 0 {
			m.iterations = iterations
		}
	}
}

func WithMaxChildren(maxChildren int) Option {
	return func(m *MCTS) {
		if maxChildren > 0 {
			m.maxChildren = maxChildren
		}
	}
}

func WithExplorationWeight(weight float64) Option {
	return func(m *MCTS) {
		if weight >= 0 {
			m.explorationWeight = weight
		}
	}
}

// WithRand sets the random source used to pick which freshly expanded child
// gets simulated. Tests fix the seed to assert exact tree shapes.
func WithRand(rng *rand.Rand) Option {
	return func(m *MCTS) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithVerbose emits per-iteration progress through the global logger.
func WithVerbose() Option {
	return func(m *MCTS) {
		m.logger = log.Logger
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(model inference.Model, settings inference.RequestSettings, options ...Option) *MCTS {
	if model == nil {
		panic("Must provide a model")
	}

	m := &MCTS{ // Default values
		model:             model,
		settings:          settings,
		iterations:        DefaultIterations,
		maxChildren:       DefaultMaxChildren,
		explorationWeight: DefaultExplorationWeight,
		rng:               rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		logger:            zerolog.Nop(),
		metrics:           metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Search generates an initial answer for prompt, runs the configured number
// of select/expand/simulate/backpropagate cycles, and returns the
// most-visited child of the root as the final answer.
func (m *MCTS) Search(ctx context.Context, prompt string) (Result, error) {
	initial, err := m.model.GenerateInitialAnswer(ctx, prompt, m.settings)
	if err != nil {
		return Result{}, fmt.Errorf("generating initial answer: %w", err)
	}
	root := newNode(prompt, initial, m.maxChildren, m.explorationWeight, nil)

	m.metrics.Start(m.iterations, m.maxChildren, m.explorationWeight)

	for i := 0; i < m.iterations; i++ {
		m.logger.Info().Msgf("Iteration %d/%d", i+1, m.iterations)

		node := selectNode(root)
		m.logger.Info().Msgf("Selected node at level %d", node.Level)

		if !node.IsFullyExpanded() {
			m.logger.Info().Msgf("Expanding node at level %d", node.Level)
			node, err = m.expand(ctx, node)
			if err != nil {
				return Result{}, err
			}
		}

		reward, err := m.simulate(ctx, node)
		if err != nil {
			return Result{}, err
		}
		m.logger.Info().Float64("reward", reward).Msg("Simulated reward")

		backpropagate(node, reward)
		m.metrics.AddSimulation(reward)
	}

	metric := m.metrics.Complete()
	m.logger.Info().
		Str("run_id", metric.RunID).
		Int("expansions", metric.Expansions).
		Float64("total_reward", metric.TotalReward).
		Dur("duration", metric.Duration).
		Msg("Search complete")

	best := root.MostVisitedChild()
	m.logger.Info().Msgf("Best node has %d visits at level %d", best.Visits, best.Level)

	return Result{
		Answer:    best.Answer,
		Tree:      root,
		ValidPath: []*Node{root, best},
	}, nil
}

// selectNode descends via UCT until it reaches a node that can still be
// expanded or has no children to descend into.
func selectNode(root *Node) *Node {
	node := root
	for node.IsFullyExpanded() && len(node.Children) > 0 {
		node = node.BestChild()
	}
	return node
}

// expand fills node up to its child cap. Every child starts as a copy of the
// parent's current answer and is appended before refinement, so the tree
// records each refinement attempt even if a model call fails mid-flight.
// Each child is critiqued and refined independently; that sampling is what
// makes siblings diverge from the same source text. One of the new children
// is returned uniformly at random for simulation, so the first evaluation of
// a fresh subtree is not biased toward any particular rewrite.
func (m *MCTS) expand(ctx context.Context, node *Node) (*Node, error) {
	added := make([]*Node, 0, m.maxChildren-len(node.Children))

	for j := len(node.Children); j < m.maxChildren; j++ {
		child := newNode(node.OriginalPrompt, node.Answer, m.maxChildren, m.explorationWeight, node)
		node.AddChild(child)
		added = append(added, child)

		feedback, err := m.model.GenerateFeedback(ctx, node.OriginalPrompt, child.Answer, m.settings)
		if err != nil {
			return nil, fmt.Errorf("generating feedback: %w", err)
		}

		improved, err := m.model.GenerateImprovedVersion(ctx, node.OriginalPrompt, child.Answer, feedback, m.settings)
		if err != nil {
			return nil, fmt.Errorf("refining answer: %w", err)
		}

		child.Answer = improved
		m.metrics.AddExpansion()
	}

	return added[m.rng.Intn(len(added))], nil
}

// simulate rates the node's answer against the original prompt and maps the
// raw score into the bounded reward range.
func (m *MCTS) simulate(ctx context.Context, node *Node) (float64, error) {
	raw, err := m.model.GenerateRating(ctx, node.OriginalPrompt, node.Answer, m.settings)
	if err != nil {
		return 0, fmt.Errorf("rating answer: %w", err)
	}

	reward, err := utils.NormalizeRating(raw)
	if err != nil {
		return 0, fmt.Errorf("normalizing rating: %w", err)
	}
	return reward, nil
}

// backpropagate updates visit and value statistics on every node from the
// simulated node up to the root inclusive.
func backpropagate(node *Node, reward float64) {
	for node != nil {
		node.Visits++
		node.Value += reward
		node = node.Parent
	}
}
