package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/stats"
)

func pickAction(id, obj string, prob float64) model.Action {
	return model.Action{
		ID:          id,
		Name:        "pick up " + obj,
		Effects:     map[string]model.Value{"holding": model.String(obj)},
		Cost:        1,
		SuccessProb: prob,
	}
}

func TestPredict_NameMatchCaseFolded(t *testing.T) {
	catalog := []model.Action{pickAction("pick_box", "box", 0.8)}
	p := New(catalog, nil)

	cands := p.Predict(model.State{}, []Descriptor{{Name: "Pick Up BOX"}})

	require.Len(t, cands, 1)
	assert.Equal(t, "pick_box", cands[0].Transition.Action.ID)
	assert.Equal(t, 0.8, cands[0].Score, "no history: declared probability stands alone")
}

func TestPredict_EffectKeyMatch(t *testing.T) {
	catalog := []model.Action{pickAction("pick_box", "box", 0.8)}
	p := New(catalog, nil)

	cands := p.Predict(model.State{}, []Descriptor{{Name: "acquire cargo", EffectKeys: []string{"holding"}}})

	require.Len(t, cands, 1)
	assert.Equal(t, "pick_box", cands[0].Transition.Action.ID)
}

func TestPredict_NoMatchEmitsNothing(t *testing.T) {
	catalog := []model.Action{pickAction("pick_box", "box", 0.8)}
	p := New(catalog, nil)

	cands := p.Predict(model.State{}, []Descriptor{
		{Name: "teleport", EffectKeys: []string{"location_warp"}},
		{Name: "pick up box"},
	})

	require.Len(t, cands, 1, "unmatched descriptor yields a gap, never a fabricated transition")
	assert.Equal(t, 1, cands[0].DescriptorIndex)
}

func TestPredict_MalformedDescriptorSkipped(t *testing.T) {
	catalog := []model.Action{pickAction("pick_box", "box", 0.8)}
	p := New(catalog, nil)

	cands := p.Predict(model.State{}, []Descriptor{{Name: "   "}, {Name: "pick up box"}})

	require.Len(t, cands, 1)
	assert.Equal(t, 1, cands[0].DescriptorIndex)
}

func TestPredict_HistoryBlendsIntoScore(t *testing.T) {
	catalog := []model.Action{pickAction("pick_box", "box", 0.8)}

	rec, err := stats.NewMemory()
	require.NoError(t, err)
	require.NoError(t, rec.Record("pick_box", false)) // recorded rate 0.0

	p := New(catalog, rec, WithBlendWeight(0.5))
	cands := p.Predict(model.State{}, []Descriptor{{Name: "pick up box"}})

	require.Len(t, cands, 1)
	// (1-0.5)*0.8 + 0.5*0.0
	assert.InDelta(t, 0.4, cands[0].Score, 1e-9)
}

func TestPredict_RankedByScore(t *testing.T) {
	catalog := []model.Action{
		pickAction("pick_box_weak", "box", 0.3),
		pickAction("pick_box_strong", "box", 0.9),
	}
	p := New(catalog, nil)

	cands := p.Predict(model.State{}, []Descriptor{{Name: "pick up box"}})

	require.Len(t, cands, 2)
	assert.Equal(t, "pick_box_strong", cands[0].Transition.Action.ID)
	assert.Equal(t, "pick_box_weak", cands[1].Transition.Action.ID)
}

func TestPredict_ProvisionalStateAdvances(t *testing.T) {
	moveToShelf := model.Action{
		ID:            "move_shelf",
		Name:          "move to shelf",
		Preconditions: []model.Predicate{{Key: "at", Value: model.String("start")}},
		Effects:       map[string]model.Value{"at": model.String("shelf")},
		Cost:          1,
		SuccessProb:   1,
	}
	pickAtShelf := model.Action{
		ID:            "pick_box",
		Name:          "pick up box",
		Preconditions: []model.Predicate{{Key: "at", Value: model.String("shelf")}},
		Effects:       map[string]model.Value{"holding": model.String("box")},
		Cost:          1,
		SuccessProb:   1,
	}
	p := New([]model.Action{moveToShelf, pickAtShelf}, nil)

	cands := p.Predict(
		model.State{"at": model.String("start")},
		[]Descriptor{{Name: "move to shelf"}, {Name: "pick up box"}},
	)

	require.Len(t, cands, 2)
	// The second candidate is scored and applied against the state the
	// first is expected to produce, so its pick precondition holds.
	assert.True(t, cands[1].Transition.From["at"].Equal(model.String("shelf")))
	assert.True(t, cands[1].Transition.To["holding"].Equal(model.String("box")))
}

func TestPredict_InapplicableMatchKeepsFromState(t *testing.T) {
	pickAtShelf := model.Action{
		ID:            "pick_box",
		Name:          "pick up box",
		Preconditions: []model.Predicate{{Key: "at", Value: model.String("shelf")}},
		Effects:       map[string]model.Value{"holding": model.String("box")},
		Cost:          1,
		SuccessProb:   1,
	}
	p := New([]model.Action{pickAtShelf}, nil)

	cands := p.Predict(model.State{"at": model.String("start")}, []Descriptor{{Name: "pick up box"}})

	require.Len(t, cands, 1)
	// Not applicable: the transition is a prediction, To stays at From.
	assert.True(t, cands[0].Transition.To.Equal(cands[0].Transition.From))
}
