package usecase

import "context"

// ReclaimReport summarizes one sweep of the reclaim worker.
type ReclaimReport struct {
	StaleOrders   int
	ReleasedCodes int
}

// Reclaimer is what background workers need from the order engine.
type Reclaimer interface {
	Reclaim(ctx context.Context) (*ReclaimReport, error)
}
