package model

import "github.com/google/uuid"

// NewID returns a time-ordered unique identifier. UUID v7 keeps ids sortable
// by creation time; v4 is the fallback when v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
