package app

import "github.com/google/uuid"

// generateID returns a UUIDv7, so ids of rows created in the same second
// still sort by creation order.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
