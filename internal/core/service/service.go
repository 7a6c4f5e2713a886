// Package service holds the transactional core: the inventory ledger, the
// purchase-order receiving workflow, catalog maintenance, and sales. Each
// operation runs inside one transaction obtained from the injected store;
// domain events accumulated during the operation are published only after
// the transaction has committed.
package service

import (
	"context"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/core/event"
)

// publishAll is the single publication point shared by the services. It is
// only ever called after a successful commit, so no event is observed for
// a mutation that was rolled back.
func publishAll(ctx context.Context, bus *event.Bus, events []domain.Event) {
	if bus == nil {
		return
	}
	for _, e := range events {
		bus.Publish(ctx, e)
	}
}
