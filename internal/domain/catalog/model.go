package catalog

import "time"

// BOMItem is one line of a service's bill of materials: the product consumed
// and how many units one appointment uses.
type BOMItem struct {
	ProductID int64
	Qty       int64
}

type ServiceDefinition struct {
	ID           int64
	Name         string
	Price        float64
	Active       bool
	CreatedAt    time.Time
	ProductsUsed []BOMItem
}
