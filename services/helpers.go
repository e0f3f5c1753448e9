package services

import (
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// defaultColumns are seeded into every new stage.
var defaultColumns = []string{"Match Played", "Win", "Loss", "Draw", "Points"}

const defaultColumnValue = "0"

// uniqueIDs drops duplicates, keeping first occurrence order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

func validateScheduledTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(models.TimeLayout, s); err != nil {
		return ErrInvalidScheduledTime
	}
	return nil
}

func parseStatus(s models.TiesheetStatus) (models.TiesheetStatus, error) {
	status := models.TiesheetStatus(strings.ToLower(strings.TrimSpace(string(s))))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}
