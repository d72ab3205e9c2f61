package domain

import "time"

// Machine is a piece of equipment that receives maintenance.
type Machine struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
