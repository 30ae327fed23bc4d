package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultDepreciationFactor = 0.5

type InstallmentKind string

const (
	InstallmentFirstMonth  InstallmentKind = "first_month"
	InstallmentSecondMonth InstallmentKind = "second_month"
)

// Period is a UTC calendar month.
type Period struct {
	Year  int
	Month time.Month
}

func PeriodOf(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: u.Month()}
}

func ParsePeriod(v string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(v))
	if err != nil {
		return Period{}, fmt.Errorf("%w: period must be YYYY-MM", ErrInvalidInput)
	}
	return PeriodOf(t), nil
}

func (p Period) String() string       { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }
func (p Period) Start() time.Time     { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }
func (p Period) End() time.Time       { return p.Start().AddDate(0, 1, 0) }
func (p Period) Next() Period         { return PeriodOf(p.End()) }
func (p Period) Prev() Period         { return PeriodOf(p.Start().AddDate(0, -1, 0)) }
func (p Period) IsZero() bool         { return p.Year == 0 && p.Month == 0 }
func (p Period) Before(o Period) bool { return p.Start().Before(o.Start()) }
func (p Period) After(o Period) bool  { return p.Start().After(o.Start()) }

type SlabRef struct {
	SlabID      uuid.UUID `json:"slab_id"`
	Name        string    `json:"name"`
	RatePercent float64   `json:"rate_percent"`
}

type CommissionLine struct {
	SaleID      uuid.UUID       `json:"sale_id"`
	Kind        InstallmentKind `json:"kind"`
	SaleAmount  float64         `json:"sale_amount"`
	RatePercent float64         `json:"rate_percent"`
	Factor      float64         `json:"factor"`
	Commission  float64         `json:"commission"`
}

type PeriodCommission struct {
	Period           string           `json:"period"`
	FirstMonthCount  int              `json:"first_month_count"`
	SecondMonthCount int              `json:"second_month_count"`
	FirstMonthSlab   *SlabRef         `json:"first_month_slab,omitempty"`
	SecondMonthSlab  *SlabRef         `json:"second_month_slab,omitempty"`
	FirstMonthRate   float64          `json:"first_month_rate"`
	SecondMonthRate  float64          `json:"second_month_rate"`
	FirstMonthTotal  float64          `json:"first_month_total"`
	SecondMonthTotal float64          `json:"second_month_total"`
	Total            float64          `json:"total"`
	Lines            []CommissionLine `json:"lines"`
}

type CommissionStatement struct {
	PartnerID          uuid.UUID          `json:"partner_id"`
	Currency           string             `json:"currency"`
	DepreciationFactor float64            `json:"depreciation_factor"`
	Periods            []PeriodCommission `json:"periods"`
	GrandTotal         float64            `json:"grand_total"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// StatementOptions narrows the statement output. Slab counts always come from the
// full history; From/To only filter which periods are returned.
type StatementOptions struct {
	From               *Period
	To                 *Period
	AsOf               time.Time
	DepreciationFactor float64
}

// SelectSlab returns the slab applying to count eligible sales.
// Overlapping slabs resolve to the greatest MinSales, then the higher rate, then the
// lowest id. A count past every bounded slab falls into the highest slab.
func SelectSlab(slabs []CommissionSlab, count int) (CommissionSlab, bool) {
	var (
		best  CommissionSlab
		found bool
	)
	for _, s := range slabs {
		if !s.Contains(count) {
			continue
		}
		if !found || slabOutranks(s, best) {
			best, found = s, true
		}
	}
	if found || len(slabs) == 0 {
		return best, found
	}

	var top CommissionSlab
	for i, s := range slabs {
		if s.OpenEnded() {
			// an open slab that does not contain count sits above it
			return CommissionSlab{}, false
		}
		if i == 0 || s.MaxSales > top.MaxSales || (s.MaxSales == top.MaxSales && slabOutranks(s, top)) {
			top = s
		}
	}
	if count >= top.MaxSales {
		return top, true
	}
	return CommissionSlab{}, false
}

func slabOutranks(a, b CommissionSlab) bool {
	if a.MinSales != b.MinSales {
		return a.MinSales > b.MinSales
	}
	if a.RatePercent != b.RatePercent {
		return a.RatePercent > b.RatePercent
	}
	return a.SlabID.String() < b.SlabID.String()
}

// NextSlab returns the first slab above the one applying to count and how many more
// eligible sales are needed to reach it.
func NextSlab(slabs []CommissionSlab, count int) (CommissionSlab, int, bool) {
	current, hasCurrent := SelectSlab(slabs, count)
	var (
		next  CommissionSlab
		found bool
	)
	for _, s := range slabs {
		if s.MinSales <= count {
			continue
		}
		if hasCurrent && s.RatePercent <= current.RatePercent {
			continue
		}
		if !found || s.MinSales < next.MinSales || (s.MinSales == next.MinSales && slabOutranks(s, next)) {
			next, found = s, true
		}
	}
	if !found {
		return CommissionSlab{}, 0, false
	}
	return next, next.MinSales - count, true
}

type installmentItem struct {
	sale   Sale
	kind   InstallmentKind
	period Period
}

// ComputeStatement recomputes a partner's commission from its full sales history.
//
// A new sale earns a first-month installment in the month it was sold and a
// second-month installment in the following month. A renewal sale earns a single
// second-month installment in its own month. An installment is eligible only if the
// sale was not cancelled before the end of the installment's month. The slab for each
// installment kind is chosen by that month's count of eligible installments of the
// same kind; second-month commission is scaled by the depreciation factor.
func ComputeStatement(partnerID uuid.UUID, currency string, slabs []CommissionSlab, sales []Sale, opts StatementOptions) (CommissionStatement, error) {
	if opts.DepreciationFactor < 0 || opts.DepreciationFactor > 1 {
		return CommissionStatement{}, fmt.Errorf("%w: depreciation factor must be within [0,1]", ErrInvalidInput)
	}
	if opts.From != nil && opts.To != nil && opts.To.Before(*opts.From) {
		return CommissionStatement{}, fmt.Errorf("%w: period range is inverted", ErrInvalidInput)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		for _, s := range sales {
			if s.PartnerID == partnerID {
				currency = strings.ToUpper(s.Currency)
				break
			}
		}
	}

	byPeriod := map[Period][]installmentItem{}
	for _, sale := range sales {
		if sale.PartnerID != partnerID || !strings.EqualFold(sale.Currency, currency) {
			continue
		}
		if !opts.AsOf.IsZero() && sale.SoldAt.After(opts.AsOf) {
			continue
		}
		sold := PeriodOf(sale.SoldAt)
		switch sale.Kind {
		case SaleKindRenewal:
			byPeriod[sold] = appendEligible(byPeriod[sold], sale, InstallmentSecondMonth, sold, opts.AsOf)
		default:
			byPeriod[sold] = appendEligible(byPeriod[sold], sale, InstallmentFirstMonth, sold, opts.AsOf)
			next := sold.Next()
			if opts.AsOf.IsZero() || !next.Start().After(opts.AsOf) {
				byPeriod[next] = appendEligible(byPeriod[next], sale, InstallmentSecondMonth, next, opts.AsOf)
			}
		}
	}

	periods := make([]Period, 0, len(byPeriod))
	for p, items := range byPeriod {
		if len(items) > 0 {
			periods = append(periods, p)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	stmt := CommissionStatement{
		PartnerID:          partnerID,
		Currency:           currency,
		DepreciationFactor: opts.DepreciationFactor,
		Periods:            make([]PeriodCommission, 0, len(periods)),
	}
	for _, p := range periods {
		if opts.From != nil && p.Before(*opts.From) {
			continue
		}
		if opts.To != nil && p.After(*opts.To) {
			continue
		}
		pc := computePeriod(p, byPeriod[p], slabs, opts.DepreciationFactor)
		stmt.Periods = append(stmt.Periods, pc)
		stmt.GrandTotal += pc.Total
	}
	stmt.GrandTotal = round2(stmt.GrandTotal)
	return stmt, nil
}

func appendEligible(items []installmentItem, sale Sale, kind InstallmentKind, p Period, asOf time.Time) []installmentItem {
	if sale.CancelledAt != nil {
		cancelled := *sale.CancelledAt
		known := asOf.IsZero() || !cancelled.After(asOf)
		if known && cancelled.Before(p.End()) {
			return items
		}
	}
	return append(items, installmentItem{sale: sale, kind: kind, period: p})
}

func computePeriod(p Period, items []installmentItem, slabs []CommissionSlab, factor float64) PeriodCommission {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].kind != items[j].kind {
			return items[i].kind == InstallmentFirstMonth
		}
		if !items[i].sale.SoldAt.Equal(items[j].sale.SoldAt) {
			return items[i].sale.SoldAt.Before(items[j].sale.SoldAt)
		}
		return items[i].sale.SaleID.String() < items[j].sale.SaleID.String()
	})

	pc := PeriodCommission{Period: p.String(), Lines: make([]CommissionLine, 0, len(items))}
	for _, it := range items {
		if it.kind == InstallmentFirstMonth {
			pc.FirstMonthCount++
		} else {
			pc.SecondMonthCount++
		}
	}
	firstRate, firstRef := slabRate(slabs, pc.FirstMonthCount)
	secondRate, secondRef := slabRate(slabs, pc.SecondMonthCount)
	if pc.FirstMonthCount > 0 {
		pc.FirstMonthSlab = firstRef
		pc.FirstMonthRate = firstRate
	}
	if pc.SecondMonthCount > 0 {
		pc.SecondMonthSlab = secondRef
		pc.SecondMonthRate = secondRate
	}

	for _, it := range items {
		line := CommissionLine{SaleID: it.sale.SaleID, Kind: it.kind, SaleAmount: it.sale.Amount, Factor: 1}
		if it.kind == InstallmentFirstMonth {
			line.RatePercent = firstRate
			line.Commission = installment(it.sale.Amount, firstRate, 1)
			pc.FirstMonthTotal += line.Commission
		} else {
			line.RatePercent = secondRate
			line.Factor = factor
			line.Commission = installment(it.sale.Amount, secondRate, factor)
			pc.SecondMonthTotal += line.Commission
		}
		pc.Lines = append(pc.Lines, line)
	}
	pc.FirstMonthTotal = round2(pc.FirstMonthTotal)
	pc.SecondMonthTotal = round2(pc.SecondMonthTotal)
	pc.Total = round2(pc.FirstMonthTotal + pc.SecondMonthTotal)
	return pc
}

func slabRate(slabs []CommissionSlab, count int) (float64, *SlabRef) {
	slab, ok := SelectSlab(slabs, count)
	if !ok {
		return 0, nil
	}
	return slab.RatePercent, &SlabRef{SlabID: slab.SlabID, Name: slab.Name, RatePercent: slab.RatePercent}
}

// PeriodTotal returns the statement entry for p, or a zero entry when nothing was earned.
func (s CommissionStatement) PeriodTotal(p Period) PeriodCommission {
	key := p.String()
	for _, pc := range s.Periods {
		if pc.Period == key {
			return pc
		}
	}
	return PeriodCommission{Period: key, Lines: []CommissionLine{}}
}
