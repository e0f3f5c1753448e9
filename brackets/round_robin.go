package brackets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() PairingGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return GeneratorRoundRobin
}

// Generate pairs every participant with every other participant once, spread
// over rounds with the circle method so nobody plays twice in a round. With an
// odd count one participant sits out each round.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]Pairing, error) {
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: %w (found %d)", ErrNotEnoughParticipants, n)
	}

	slots := make([]uuid.UUID, n, n+1)
	copy(slots, params.Participants)
	if n%2 == 1 {
		slots = append(slots, uuid.Nil) // sits out
	}
	m := len(slots)

	pairings := make([]Pairing, 0, n*(n-1)/2)
	for round := 1; round < m; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order := 0
		for i := 0; i < m/2; i++ {
			a, b := slots[i], slots[m-1-i]
			if a == uuid.Nil || b == uuid.Nil {
				continue
			}
			order++
			pairings = append(pairings, Pairing{
				Round:          round,
				OrderInRound:   order,
				ParticipantIDs: []uuid.UUID{a, b},
			})
		}

		// Первый слот фиксирован, остальные сдвигаются по кругу.
		last := slots[m-1]
		copy(slots[2:], slots[1:m-1])
		slots[1] = last
	}

	return pairings, nil
}
