package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequorlabs/sequor/internal/model"
)

func testActions() []model.Action {
	return []model.Action{
		{
			ID:          "pick",
			Name:        "pick item",
			Effects:     map[string]model.Value{"holding": model.String("item")},
			Cost:        1,
			SuccessProb: 1,
		},
		{
			ID:            "place",
			Name:          "place item",
			Preconditions: []model.Predicate{{Key: "holding", Value: model.String("item")}},
			Effects:       map[string]model.Value{"item_at": model.String("shelf")},
			Cost:          1,
			SuccessProb:   0.9,
		},
	}
}

func TestNew_PreservesDeclarationOrder(t *testing.T) {
	c, err := New(testActions())
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "pick", c.Actions()[0].ID)
	assert.Equal(t, "place", c.Actions()[1].ID)
	assert.NotEmpty(t, c.Hash())
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	actions := testActions()
	actions[1].ID = "pick"

	_, err := New(actions)
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "pick", dup.ID)
	assert.Equal(t, 0, dup.First)
	assert.Equal(t, 1, dup.Second)
}

func TestNew_RejectsInvalidAction(t *testing.T) {
	actions := testActions()
	actions[0].Effects = nil

	_, err := New(actions)
	assert.Error(t, err)
}

func TestByID(t *testing.T) {
	c, err := New(testActions())
	require.NoError(t, err)

	a, ok := c.ByID("place")
	require.True(t, ok)
	assert.Equal(t, "place item", a.Name)

	_, ok = c.ByID("missing")
	assert.False(t, ok)
}
