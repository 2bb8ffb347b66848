package searcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"montecarlo/inference"
	"montecarlo/utils"
)

// stubModel implements inference.Model with canned responses. Each critique
// and refinement gets a distinct text so sibling answers diverge like real
// sampled completions would.
type stubModel struct {
	initial     string
	ratings     []json.Number
	feedbackErr error

	feedbacks   int
	refinements int
	rated       int
}

func (s *stubModel) GenerateInitialAnswer(_ context.Context, _ string, _ inference.RequestSettings) (string, error) {
	return s.initial, nil
}

func (s *stubModel) GenerateFeedback(_ context.Context, _, _ string, _ inference.RequestSettings) (string, error) {
	if s.feedbackErr != nil {
		return "", s.feedbackErr
	}
	s.feedbacks++
	return fmt.Sprintf("feedback %d", s.feedbacks), nil
}

func (s *stubModel) GenerateImprovedVersion(_ context.Context, _, _, _ string, _ inference.RequestSettings) (string, error) {
	s.refinements++
	return fmt.Sprintf("draft %d", s.refinements), nil
}

func (s *stubModel) GenerateRating(_ context.Context, _, _ string, _ inference.RequestSettings) (json.Number, error) {
	if s.rated >= len(s.ratings) {
		return "", fmt.Errorf("no ratings left after %d simulations", s.rated)
	}
	rating := s.ratings[s.rated]
	s.rated++
	return rating, nil
}

func TestSearch(t *testing.T) {
	t.Run("running the full select/expand/simulate/backpropagate cycle", func(t *testing.T) {
		model := &stubModel{
			initial: "initial answer",
			ratings: []json.Number{"90", "10", "50", "70"},
		}
		m := NewMCTS(model, inference.RequestSettings{},
			WithIterations(4),
			WithMaxChildren(2),
			WithExplorationWeight(1.0),
			WithRand(rand.New(rand.NewSource(42))),
		)

		result, err := m.Search(context.Background(), "prompt")
		require.NoError(t, err)

		root := result.Tree
		require.Equal(t, "initial answer", root.Answer)
		require.Equal(t, 5, root.Visits, "Root should get the creation visit plus one per iteration")
		require.InDelta(t, 2.2, root.Value, 1e-9, "Every normalized reward should reach the root")
		require.Len(t, root.Children, 2, "Root should be fully expanded after the first iteration")
		require.Equal(t, 3, root.Children[0].Visits)
		require.Equal(t, 3, root.Children[1].Visits)

		best := root.MostVisitedChild()
		require.Same(t, root.Children[0], best, "Visit tie should resolve to the first child")
		require.Equal(t, best.Answer, result.Answer)
		require.Equal(t, []*Node{root, best}, result.ValidPath)

		require.Equal(t, 8, model.feedbacks, "Four expansions of two children each")
		require.Equal(t, 8, model.refinements)
		require.Equal(t, 4, model.rated, "One simulation per iteration")
	})

	t.Run("children diverge from the parent answer", func(t *testing.T) {
		model := &stubModel{
			initial: "initial answer",
			ratings: []json.Number{"60"},
		}
		m := NewMCTS(model, inference.RequestSettings{},
			WithIterations(1),
			WithMaxChildren(2),
			WithRand(rand.New(rand.NewSource(1))),
		)

		result, err := m.Search(context.Background(), "prompt")
		require.NoError(t, err)

		root := result.Tree
		require.Len(t, root.Children, 2)
		require.Equal(t, "draft 1", root.Children[0].Answer)
		require.Equal(t, "draft 2", root.Children[1].Answer)
	})

	t.Run("propagating a collaborator failure aborts the run", func(t *testing.T) {
		boom := errors.New("model unavailable")
		model := &stubModel{initial: "initial answer", feedbackErr: boom}
		m := NewMCTS(model, inference.RequestSettings{}, WithIterations(2))

		_, err := m.Search(context.Background(), "prompt")
		require.ErrorIs(t, err, boom)
	})

	t.Run("aborting on a malformed rating", func(t *testing.T) {
		model := &stubModel{initial: "initial answer", ratings: []json.Number{"abc"}}
		m := NewMCTS(model, inference.RequestSettings{}, WithIterations(1))

		_, err := m.Search(context.Background(), "prompt")
		require.ErrorIs(t, err, utils.ErrInvalidScoreFormat)
	})
}

func TestSelectNode(t *testing.T) {
	t.Run("stopping at a fully expanded node without children", func(t *testing.T) {
		root := newNode("prompt", "answer", 0, 1.0, nil)

		require.NotPanics(t, func() {
			require.Same(t, root, selectNode(root))
		})
	})

	t.Run("descending through fully expanded nodes", func(t *testing.T) {
		root := newNode("prompt", "answer", 1, 1.0, nil)
		child := newNode("prompt", "refined", 1, 1.0, root)
		root.AddChild(child)

		require.Same(t, child, selectNode(root), "Selection should stop at the expandable child")
	})
}

func TestBackpropagate(t *testing.T) {
	t.Run("updating statistics on the whole path to the root", func(t *testing.T) {
		root := newNode("prompt", "answer", 2, 1.0, nil)
		child := newNode("prompt", "refined", 2, 1.0, root)
		root.AddChild(child)
		leaf := newNode("prompt", "refined again", 2, 1.0, child)
		child.AddChild(leaf)

		backpropagate(leaf, 0.5)
		backpropagate(leaf, 0.25)

		for _, node := range []*Node{root, child, leaf} {
			require.Equal(t, 3, node.Visits, "Initial visit plus two backpropagations")
			require.InDelta(t, 0.75, node.Value, 1e-9)
		}
	})
}

func TestNewMCTS(t *testing.T) {
	t.Run("panics without a model", func(t *testing.T) {
		require.Panics(t, func() { NewMCTS(nil, inference.RequestSettings{}) })
	})

	t.Run("ignores non-positive overrides", func(t *testing.T) {
		m := NewMCTS(&stubModel{}, inference.RequestSettings{},
			WithIterations(0),
			WithMaxChildren(-1),
			WithExplorationWeight(-2),
		)

		require.Equal(t, DefaultIterations, m.iterations)
		require.Equal(t, DefaultMaxChildren, m.maxChildren)
		require.Equal(t, DefaultExplorationWeight, m.explorationWeight)
	})
}
