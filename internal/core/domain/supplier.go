package domain

import "time"

type Supplier struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
