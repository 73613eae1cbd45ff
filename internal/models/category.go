package models

// Category groups transactions. Names are unique per owner.
type Category struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt int64
}
