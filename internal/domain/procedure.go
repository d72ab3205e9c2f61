package domain

import "time"

// Procedure is a standard preventive-maintenance task definition.
type Procedure struct {
	ID              string
	Code            string
	Name            string
	Instructions    string
	DefaultDuration time.Duration
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
