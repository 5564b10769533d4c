package reconcile

import (
	"context"
	"fmt"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
)

// StateFromModel projects a persisted settlement into the in-memory shape.
func StateFromModel(settlement models.Settlement) State {
	state := State{
		RestaurantID:       settlement.RestaurantID,
		RestaurantName:     settlement.RestaurantName,
		DefaultAmount:      settlement.DefaultAmount,
		CycleStartDate:     settlement.CycleStartDate,
		CurrentOverpayment: settlement.CurrentOverpayment,
		Version:            settlement.Version,
		Periods:            make(map[string]PeriodState, len(settlement.Periods)),
	}
	for i := range settlement.Periods {
		period := settlement.Periods[i]
		cycleStart := period.CycleStartDate
		periodState := PeriodState{
			PeriodKey:             period.PeriodKey,
			TotalAmountDue:        period.TotalAmountDue,
			DefaultAmountForMonth: period.DefaultAmountForMonth,
			CarryOverCredit:       period.CarryOverCredit,
			OverpaymentAmount:     period.OverpaymentAmount,
			TotalPaid:             period.TotalPaid,
			Status:                period.Status,
			CycleStartDate:        &cycleStart,
			SettledDate:           period.SettledDate,
		}
		for _, entry := range period.Payments {
			periodState.Payments = append(periodState.Payments, PaymentState{
				ID:         entry.ID,
				Amount:     entry.Amount,
				Carryover:  entry.Carryover,
				RecordedAt: entry.RecordedAt,
			})
		}
		state.Periods[period.PeriodKey] = periodState
	}
	return state
}

// StatesFromModels projects a batch of settlements.
func StatesFromModels(settlements []models.Settlement) []State {
	out := make([]State, 0, len(settlements))
	for i := range settlements {
		out = append(out, StateFromModel(settlements[i]))
	}
	return out
}

// Persist implements Persister by announcing the state as a snapshot, which
// lands it in the shared store the other sessions read from.
func (p *Publisher) Persist(ctx context.Context, state State) error {
	return p.Publish(ctx, state)
}

// PublishSettlement announces a persisted settlement as a snapshot. It plugs
// the publisher directly into the ledger service for processes that run
// without a projection of their own, such as the rollover worker.
func (p *Publisher) PublishSettlement(ctx context.Context, record models.Settlement) error {
	return p.Publish(ctx, StateFromModel(record))
}

// Broadcaster feeds ledger mutations into the local projection first, then
// relies on the store's asynchronous persist to announce them to other
// sessions. The API process uses it so a just-recorded payment is visible on
// the dashboard before the snapshot makes the round trip.
type Broadcaster struct {
	store *Store
}

// NewBroadcaster wraps a store for use as the ledger's snapshot publisher.
func NewBroadcaster(store *Store) (*Broadcaster, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Broadcaster{store: store}, nil
}

// PublishSettlement applies the settlement to the projection optimistically.
func (b *Broadcaster) PublishSettlement(ctx context.Context, record models.Settlement) error {
	b.store.ApplyLocal(ctx, StateFromModel(record))
	return nil
}
