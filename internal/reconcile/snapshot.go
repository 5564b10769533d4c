package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjnair/dineflow-backend/internal/fees"
	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/enums"
)

// Document is the full settlement snapshot as it arrives from the shared
// store. Multiple admin sessions write these documents, so amounts can show
// up as numbers or strings and partially-written records are expected.
type Document struct {
	RestaurantID               string                    `json:"restaurantId"`
	RestaurantName             string                    `json:"restaurantName"`
	DefaultSettlementAmount    any                       `json:"defaultSettlementAmount"`
	DefaultSettlementStartDate *time.Time                `json:"defaultSettlementStartDate"`
	CurrentOverpayment         any                       `json:"currentOverpayment"`
	Version                    int64                     `json:"version"`
	Settlements                map[string]PeriodDocument `json:"settlements"`
}

// PeriodDocument is one period inside a snapshot. totalPaid, status, and
// installments are carried for readers of the raw document; Normalize
// recomputes all three from the payment ledger instead of trusting them.
type PeriodDocument struct {
	TotalAmountDue        any               `json:"totalAmountDue"`
	DefaultAmountForMonth any               `json:"defaultAmountForMonth"`
	CarryOverCredit       any               `json:"carryOverCredit"`
	OverpaymentAmount     any               `json:"overpaymentAmount"`
	TotalPaid             any               `json:"totalPaid"`
	Status                string            `json:"status"`
	Installments          int               `json:"installments"`
	CycleStartDate        *time.Time        `json:"cycleStartDate"`
	SettledDate           *time.Time        `json:"settledDate,omitempty"`
	PaymentHistory        []PaymentDocument `json:"paymentHistory"`
}

// PaymentDocument is one ledger entry inside a snapshot.
type PaymentDocument struct {
	ID         string     `json:"id"`
	Amount     any        `json:"amount"`
	Carryover  bool       `json:"isCarryover"`
	RecordedAt *time.Time `json:"recordedAt"`
}

// State is the normalized in-memory projection of one restaurant's
// settlement.
type State struct {
	RestaurantID       uuid.UUID
	RestaurantName     string
	DefaultAmount      decimal.Decimal
	CycleStartDate     *time.Time
	CurrentOverpayment decimal.Decimal
	Version            int64
	Periods            map[string]PeriodState
}

// PeriodState is the normalized view of one period.
type PeriodState struct {
	PeriodKey             string
	TotalAmountDue        decimal.Decimal
	DefaultAmountForMonth decimal.Decimal
	CarryOverCredit       decimal.Decimal
	OverpaymentAmount     decimal.Decimal
	TotalPaid             decimal.Decimal
	Status                enums.PeriodStatus
	CycleStartDate        *time.Time
	SettledDate           *time.Time
	Payments              []PaymentState
}

// PaymentState is one normalized ledger entry.
type PaymentState struct {
	ID         uuid.UUID
	Amount     decimal.Decimal
	Carryover  bool
	RecordedAt time.Time
}

// Normalize turns a raw snapshot into the local settlement shape. Amounts are
// re-parsed at this boundary, payment entries are deduplicated by id, and the
// paid totals and statuses are recomputed from the ledger instead of trusted
// verbatim from the remote payload.
func Normalize(doc Document) (*State, error) {
	restaurantID, err := uuid.Parse(doc.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("invalid restaurant id %q: %w", doc.RestaurantID, err)
	}

	state := &State{
		RestaurantID:       restaurantID,
		RestaurantName:     doc.RestaurantName,
		DefaultAmount:      fees.ParseAmount(doc.DefaultSettlementAmount),
		CycleStartDate:     doc.DefaultSettlementStartDate,
		CurrentOverpayment: fees.ParseAmount(doc.CurrentOverpayment),
		Version:            doc.Version,
		Periods:            make(map[string]PeriodState, len(doc.Settlements)),
	}

	for periodKey, period := range doc.Settlements {
		state.Periods[periodKey] = normalizePeriod(periodKey, period)
	}
	return state, nil
}

func normalizePeriod(periodKey string, doc PeriodDocument) PeriodState {
	period := PeriodState{
		PeriodKey:             periodKey,
		TotalAmountDue:        fees.ParseAmount(doc.TotalAmountDue),
		DefaultAmountForMonth: fees.ParseAmount(doc.DefaultAmountForMonth),
		CarryOverCredit:       fees.ParseAmount(doc.CarryOverCredit),
		OverpaymentAmount:     fees.ParseAmount(doc.OverpaymentAmount),
		CycleStartDate:        doc.CycleStartDate,
		SettledDate:           doc.SettledDate,
	}

	seen := make(map[uuid.UUID]struct{}, len(doc.PaymentHistory))
	totalPaid := decimal.Zero
	for _, raw := range doc.PaymentHistory {
		id, err := uuid.Parse(raw.ID)
		if err != nil {
			// Entries without a usable id cannot be deduplicated; drop them
			// rather than double-count across snapshots.
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry := PaymentState{
			ID:        id,
			Amount:    fees.ParseAmount(raw.Amount),
			Carryover: raw.Carryover,
		}
		if raw.RecordedAt != nil {
			entry.RecordedAt = *raw.RecordedAt
		}
		period.Payments = append(period.Payments, entry)
		totalPaid = totalPaid.Add(entry.Amount)
	}

	sort.Slice(period.Payments, func(i, j int) bool {
		return period.Payments[i].RecordedAt.Before(period.Payments[j].RecordedAt)
	})

	period.TotalPaid = totalPaid
	period.Status = settlement.StatusFor(totalPaid, period.TotalAmountDue)
	return period
}

// Denormalize renders a local state back into the wire document shape used by
// the shared store.
func Denormalize(state State) Document {
	doc := Document{
		RestaurantID:               state.RestaurantID.String(),
		RestaurantName:             state.RestaurantName,
		DefaultSettlementAmount:    state.DefaultAmount.String(),
		DefaultSettlementStartDate: state.CycleStartDate,
		CurrentOverpayment:         state.CurrentOverpayment.String(),
		Version:                    state.Version,
		Settlements:                make(map[string]PeriodDocument, len(state.Periods)),
	}
	for periodKey, period := range state.Periods {
		periodDoc := PeriodDocument{
			TotalAmountDue:        period.TotalAmountDue.String(),
			DefaultAmountForMonth: period.DefaultAmountForMonth.String(),
			CarryOverCredit:       period.CarryOverCredit.String(),
			OverpaymentAmount:     period.OverpaymentAmount.String(),
			TotalPaid:             period.TotalPaid.String(),
			Status:                period.Status.String(),
			Installments:          len(period.Payments),
			CycleStartDate:        period.CycleStartDate,
			SettledDate:           period.SettledDate,
		}
		for _, entry := range period.Payments {
			recordedAt := entry.RecordedAt
			periodDoc.PaymentHistory = append(periodDoc.PaymentHistory, PaymentDocument{
				ID:         entry.ID.String(),
				Amount:     entry.Amount.String(),
				Carryover:  entry.Carryover,
				RecordedAt: &recordedAt,
			})
		}
		doc.Settlements[periodKey] = periodDoc
	}
	return doc
}
