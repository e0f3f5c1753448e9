package brackets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() PairingGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return GeneratorSingleElimination
}

// Generate produces the opening round of a seeded knockout. When the field is
// not a power of two the top seeds get byes; the rest play best against worst.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]Pairing, error) {
	seeds := params.Participants
	n := len(seeds)
	if n < 2 {
		return nil, fmt.Errorf("SingleEliminationGenerator: %w (found %d)", ErrNotEnoughParticipants, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sizeOfFullBracket := 1
	for sizeOfFullBracket < n {
		sizeOfFullBracket <<= 1
	}
	numByes := sizeOfFullBracket - n

	pairings := make([]Pairing, 0, numByes+(n-numByes)/2)
	order := 0
	for i := 0; i < numByes; i++ {
		order++
		pairings = append(pairings, Pairing{
			Round:          1,
			OrderInRound:   order,
			ParticipantIDs: []uuid.UUID{seeds[i]},
			IsBye:          true,
		})
	}

	playing := seeds[numByes:]
	for i, j := 0, len(playing)-1; i < j; i, j = i+1, j-1 {
		order++
		pairings = append(pairings, Pairing{
			Round:          1,
			OrderInRound:   order,
			ParticipantIDs: []uuid.UUID{playing[i], playing[j]},
		})
	}

	return pairings, nil
}
