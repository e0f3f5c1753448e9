package brackets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.Must(uuid.NewV7())
	}
	return ids
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() > b.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}

func TestRoundRobinGenerate(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8} {
		ids := newIDs(n)
		pairings, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{Participants: ids})
		require.NoError(t, err)
		require.Len(t, pairings, n*(n-1)/2, "n=%d", n)

		seen := make(map[[2]uuid.UUID]bool)
		perRound := make(map[int]map[uuid.UUID]bool)
		for _, p := range pairings {
			require.Len(t, p.ParticipantIDs, 2)
			assert.False(t, p.IsBye)
			a, b := p.ParticipantIDs[0], p.ParticipantIDs[1]
			assert.NotEqual(t, a, b)

			key := pairKey(a, b)
			assert.False(t, seen[key], "pair repeated")
			seen[key] = true

			if perRound[p.Round] == nil {
				perRound[p.Round] = make(map[uuid.UUID]bool)
			}
			assert.False(t, perRound[p.Round][a], "participant plays twice in round %d", p.Round)
			assert.False(t, perRound[p.Round][b], "participant plays twice in round %d", p.Round)
			perRound[p.Round][a] = true
			perRound[p.Round][b] = true
		}
	}
}

func TestRoundRobinNotEnoughParticipants(t *testing.T) {
	_, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{Participants: newIDs(1)})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestRoundRobinCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRoundRobinGenerator().Generate(ctx, GenerateParams{Participants: newIDs(4)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingleEliminationGenerate(t *testing.T) {
	t.Run("power of two seeds best against worst", func(t *testing.T) {
		ids := newIDs(4)
		pairings, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{Participants: ids})
		require.NoError(t, err)
		require.Len(t, pairings, 2)
		assert.Equal(t, []uuid.UUID{ids[0], ids[3]}, pairings[0].ParticipantIDs)
		assert.Equal(t, []uuid.UUID{ids[1], ids[2]}, pairings[1].ParticipantIDs)
	})

	t.Run("top seeds get byes", func(t *testing.T) {
		ids := newIDs(5)
		pairings, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{Participants: ids})
		require.NoError(t, err)
		require.Len(t, pairings, 4)

		for i := 0; i < 3; i++ {
			assert.True(t, pairings[i].IsBye)
			assert.Equal(t, []uuid.UUID{ids[i]}, pairings[i].ParticipantIDs)
		}
		assert.False(t, pairings[3].IsBye)
		assert.Equal(t, []uuid.UUID{ids[3], ids[4]}, pairings[3].ParticipantIDs)

		for i, p := range pairings {
			assert.Equal(t, 1, p.Round)
			assert.Equal(t, i+1, p.OrderInRound)
		}
	})

	t.Run("not enough participants", func(t *testing.T) {
		_, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{})
		assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	})
}

func TestGeneratorFor(t *testing.T) {
	g, err := GeneratorFor("")
	require.NoError(t, err)
	assert.Equal(t, GeneratorRoundRobin, g.GetName())

	g, err = GeneratorFor(GeneratorSingleElimination)
	require.NoError(t, err)
	assert.Equal(t, GeneratorSingleElimination, g.GetName())

	_, err = GeneratorFor("swiss")
	assert.Error(t, err)
}
