package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate pairings (minimum 2)")

// Pairing is a proposed contest. A bye has a single participant who advances
// without playing.
type Pairing struct {
	Round          int
	OrderInRound   int
	ParticipantIDs []uuid.UUID
	IsBye          bool
}

type GenerateParams struct {
	// Participants in seed order, best seed first.
	Participants []uuid.UUID
}

type PairingGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]Pairing, error)
	GetName() string
}

const (
	GeneratorRoundRobin        = "round_robin"
	GeneratorSingleElimination = "single_elimination"
)

// GeneratorFor returns the generator registered under name.
func GeneratorFor(name string) (PairingGenerator, error) {
	switch name {
	case GeneratorRoundRobin, "":
		return NewRoundRobinGenerator(), nil
	case GeneratorSingleElimination:
		return NewSingleEliminationGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown pairing generator %q", name)
	}
}
