package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/observability"
)

const (
	cacheKeySlabVersion = "portal:commission:slabs:version"
	cacheVersionTTL     = 30 * 24 * time.Hour
)

func cacheKeyPartnerVersion(partnerID uuid.UUID) string {
	return "portal:commission:version:" + partnerID.String()
}

func (s *Service) cacheVersion(ctx context.Context, key string) string {
	v, err := s.cache.Get(ctx, key)
	if err != nil || v == "" {
		return "0"
	}
	return v
}

func (s *Service) invalidatePartnerStatements(ctx context.Context, partnerID uuid.UUID) {
	_, _ = s.cache.IncrWithTTL(ctx, cacheKeyPartnerVersion(partnerID), cacheVersionTTL)
}

func (s *Service) invalidateAllStatements(ctx context.Context) {
	_, _ = s.cache.IncrWithTTL(ctx, cacheKeySlabVersion, cacheVersionTTL)
}

// GetStatement recomputes a partner's commission from the whole sales history. Results
// are cached under the partner and slab versions, so any sale or slab change makes the
// cached entry unreachable.
func (s *Service) GetStatement(ctx context.Context, actor Actor, query StatementQuery) (StatementResult, error) {
	if err := requireActor(actor); err != nil {
		return StatementResult{}, err
	}
	partnerID, err := resolvePartnerID(actor, query.PartnerID)
	if err != nil {
		return StatementResult{}, err
	}
	from, to, err := parsePeriodRange(query.From, query.To)
	if err != nil {
		return StatementResult{}, err
	}
	if _, err := s.partners.Get(ctx, partnerID); err != nil {
		return StatementResult{}, err
	}

	now := s.nowFn()
	current := domain.PeriodOf(now)
	cacheKey := ""
	if query.AsOf == nil {
		cacheKey = fmt.Sprintf("portal:commission:statement:%s:%s:%s:%s:%s:%s",
			partnerID, s.cacheVersion(ctx, cacheKeyPartnerVersion(partnerID)),
			s.cacheVersion(ctx, cacheKeySlabVersion), periodKey(from), periodKey(to), current)
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && raw != "" {
			var cached StatementResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				observability.RecordStatement(true, 0)
				return cached, nil
			}
		}
	}

	started := time.Now()
	slabs, err := s.slabs.List(ctx)
	if err != nil {
		return StatementResult{}, err
	}
	sales, err := s.sales.ListByPartner(ctx, partnerID)
	if err != nil {
		return StatementResult{}, err
	}
	opts := domain.StatementOptions{From: from, To: to, DepreciationFactor: s.cfg.DepreciationFactor}
	if query.AsOf != nil {
		opts.AsOf = query.AsOf.UTC()
	}
	stmt, err := domain.ComputeStatement(partnerID, s.cfg.DefaultCurrency, slabs, sales, opts)
	if err != nil {
		return StatementResult{}, err
	}
	stmt.ComputedAt = now

	result := StatementResult{CommissionStatement: stmt}
	if query.AsOf == nil {
		result.Progress = s.slabProgress(partnerID, slabs, sales, current)
	}
	observability.RecordStatement(false, time.Since(started))

	if cacheKey != "" {
		if raw, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(raw), s.cfg.StatementCacheTTL)
		}
	}
	return result, nil
}

func (s *Service) slabProgress(partnerID uuid.UUID, slabs []domain.CommissionSlab, sales []domain.Sale, current domain.Period) *SlabProgress {
	if len(slabs) == 0 {
		return nil
	}
	stmt, err := domain.ComputeStatement(partnerID, s.cfg.DefaultCurrency, slabs, sales, domain.StatementOptions{
		From: &current, To: &current, DepreciationFactor: s.cfg.DepreciationFactor,
	})
	if err != nil {
		return nil
	}
	pc := stmt.PeriodTotal(current)
	progress := &SlabProgress{Period: current.String(), FirstMonthCount: pc.FirstMonthCount, CurrentSlab: pc.FirstMonthSlab}
	if progress.CurrentSlab == nil {
		if slab, ok := domain.SelectSlab(slabs, pc.FirstMonthCount); ok {
			progress.CurrentSlab = &domain.SlabRef{SlabID: slab.SlabID, Name: slab.Name, RatePercent: slab.RatePercent}
		}
	}
	if next, needed, ok := domain.NextSlab(slabs, pc.FirstMonthCount); ok {
		progress.NextSlab = &domain.SlabRef{SlabID: next.SlabID, Name: next.Name, RatePercent: next.RatePercent}
		progress.SalesNeeded = needed
	}
	return progress
}

// CommissionReport lists every active partner's commission for one period.
func (s *Service) CommissionReport(ctx context.Context, actor Actor, period string) (CommissionReport, error) {
	if err := requireStaff(actor); err != nil {
		return CommissionReport{}, err
	}
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return CommissionReport{}, err
	}
	partners, err := s.allPartners(ctx, string(domain.PartnerStatusActive))
	if err != nil {
		return CommissionReport{}, err
	}
	slabs, err := s.slabs.List(ctx)
	if err != nil {
		return CommissionReport{}, err
	}

	report := CommissionReport{Period: p.String(), Currency: s.cfg.DefaultCurrency, Rows: make([]CommissionReportRow, 0, len(partners))}
	for _, partner := range partners {
		pc, err := s.periodCommission(ctx, partner.PartnerID, slabs, p)
		if err != nil {
			return CommissionReport{}, err
		}
		report.Rows = append(report.Rows, CommissionReportRow{
			PartnerID:        partner.PartnerID.String(),
			PartnerName:      partner.Name,
			FirstMonthCount:  pc.FirstMonthCount,
			SecondMonthCount: pc.SecondMonthCount,
			FirstMonthTotal:  pc.FirstMonthTotal,
			SecondMonthTotal: pc.SecondMonthTotal,
			Total:            pc.Total,
		})
		report.Total += pc.Total
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		if report.Rows[i].Total != report.Rows[j].Total {
			return report.Rows[i].Total > report.Rows[j].Total
		}
		return report.Rows[i].PartnerName < report.Rows[j].PartnerName
	})
	report.Total = domain.RoundCurrency(report.Total, 2)
	return report, nil
}

// CloseMonth freezes each partner's commission for a finished period. Running it
// again for the same period keeps the first snapshot.
func (s *Service) CloseMonth(ctx context.Context, actor Actor, period string) (CloseMonthResult, error) {
	if err := requireAdmin(actor); err != nil {
		return CloseMonthResult{}, err
	}
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return CloseMonthResult{}, err
	}
	now := s.nowFn()
	if !p.Before(domain.PeriodOf(now)) {
		return CloseMonthResult{}, fmt.Errorf("%w: period %s has not ended", domain.ErrInvalidInput, p)
	}
	partners, err := s.allPartners(ctx, "")
	if err != nil {
		return CloseMonthResult{}, err
	}
	slabs, err := s.slabs.List(ctx)
	if err != nil {
		return CloseMonthResult{}, err
	}

	result := CloseMonthResult{Period: p.String(), Payouts: []domain.CommissionPayout{}}
	for _, partner := range partners {
		pc, err := s.periodCommission(ctx, partner.PartnerID, slabs, p)
		if err != nil {
			return CloseMonthResult{}, err
		}
		if pc.FirstMonthCount == 0 && pc.SecondMonthCount == 0 {
			continue
		}
		payout := domain.PayoutFromPeriod(partner.PartnerID, s.cfg.DefaultCurrency, pc, actor.SubjectID, now)
		stored, created, err := s.payouts.CreateIfAbsent(ctx, payout)
		if err != nil {
			return CloseMonthResult{}, err
		}
		result.Payouts = append(result.Payouts, stored)
		result.Total += stored.Total
		if !created {
			result.Existing++
			continue
		}
		result.Created++
		s.notify(ctx, []string{domain.PartnerRecipient(partner.PartnerID.String())}, "commission_closed",
			"Commission statement closed",
			fmt.Sprintf("Your commission for %s is %.2f %s.", p, stored.Total, stored.Currency),
			domain.EventCommissionMonthClosed,
			map[string]string{"period": p.String(), "payout_id": stored.PayoutID.String()})
	}
	result.Total = domain.RoundCurrency(result.Total, 2)

	if result.Created > 0 {
		_ = s.enqueueEvent(ctx, actor, domain.EventCommissionMonthClosed, p.String(), map[string]any{
			"period":       p.String(),
			"currency":     s.cfg.DefaultCurrency,
			"payouts":      result.Created,
			"total_amount": result.Total,
		})
		s.notify(ctx, []string{domain.AdminRecipient}, "commission_closed", "Month closed",
			fmt.Sprintf("%s closed with %d payout(s) totalling %.2f %s.", p, len(result.Payouts), result.Total, s.cfg.DefaultCurrency),
			domain.EventCommissionMonthClosed, map[string]string{"period": p.String(), "payouts": strconv.Itoa(len(result.Payouts))})
	}
	return result, nil
}

func (s *Service) ListPayouts(ctx context.Context, actor Actor, partnerID string) ([]domain.CommissionPayout, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	id, err := resolvePartnerID(actor, partnerID)
	if err != nil {
		return nil, err
	}
	return s.payouts.ListByPartner(ctx, id)
}

func (s *Service) periodCommission(ctx context.Context, partnerID uuid.UUID, slabs []domain.CommissionSlab, p domain.Period) (domain.PeriodCommission, error) {
	sales, err := s.sales.ListByPartner(ctx, partnerID)
	if err != nil {
		return domain.PeriodCommission{}, err
	}
	stmt, err := domain.ComputeStatement(partnerID, s.cfg.DefaultCurrency, slabs, sales, domain.StatementOptions{
		From: &p, To: &p, DepreciationFactor: s.cfg.DepreciationFactor,
	})
	if err != nil {
		return domain.PeriodCommission{}, err
	}
	return stmt.PeriodTotal(p), nil
}

func (s *Service) allPartners(ctx context.Context, status string) ([]domain.Partner, error) {
	const batch = 200
	var out []domain.Partner
	for offset := 0; ; offset += batch {
		items, err := s.partners.List(ctx, domain.PartnerFilter{Status: status, Limit: batch, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < batch {
			return out, nil
		}
	}
}

func parsePeriodRange(from, to string) (*domain.Period, *domain.Period, error) {
	var fp, tp *domain.Period
	if from != "" {
		p, err := domain.ParsePeriod(from)
		if err != nil {
			return nil, nil, err
		}
		fp = &p
	}
	if to != "" {
		p, err := domain.ParsePeriod(to)
		if err != nil {
			return nil, nil, err
		}
		tp = &p
	}
	if fp != nil && tp != nil && tp.Before(*fp) {
		return nil, nil, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}
	return fp, tp, nil
}

func periodKey(p *domain.Period) string {
	if p == nil {
		return "-"
	}
	return p.String()
}
