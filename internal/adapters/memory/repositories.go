package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/partner-portal/internal/domain"
	"github.com/viralforge/partner-portal/internal/ports"
)

type PartnerRepository struct{ st *store }

func (r *PartnerRepository) Create(_ context.Context, row domain.Partner) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.partners[row.PartnerID]; ok {
		return domain.ErrConflict
	}
	for _, p := range r.st.partners {
		if p.Email == row.Email {
			return domain.ErrConflict
		}
	}
	r.st.partners[row.PartnerID] = row
	return nil
}

func (r *PartnerRepository) Get(_ context.Context, partnerID uuid.UUID) (domain.Partner, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.partners[partnerID]
	if !ok {
		return domain.Partner{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *PartnerRepository) Update(_ context.Context, row domain.Partner) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.partners[row.PartnerID]; !ok {
		return domain.ErrNotFound
	}
	for id, p := range r.st.partners {
		if id != row.PartnerID && p.Email == row.Email {
			return domain.ErrConflict
		}
	}
	r.st.partners[row.PartnerID] = row
	return nil
}

func (r *PartnerRepository) List(_ context.Context, filter domain.PartnerFilter) ([]domain.Partner, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	query := strings.ToLower(filter.Query)
	out := make([]domain.Partner, 0, len(r.st.partners))
	for _, p := range r.st.partners {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) && !strings.Contains(p.Email, query) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PartnerID.String() < out[j].PartnerID.String()
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

type LeadRepository struct{ st *store }

func (r *LeadRepository) Create(_ context.Context, row domain.Lead) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.leads[row.LeadID]; ok {
		return domain.ErrConflict
	}
	r.st.leads[row.LeadID] = row
	return nil
}

func (r *LeadRepository) Get(_ context.Context, leadID uuid.UUID) (domain.Lead, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.leads[leadID]
	if !ok {
		return domain.Lead{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *LeadRepository) Update(_ context.Context, row domain.Lead) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.leads[row.LeadID]; !ok {
		return domain.ErrNotFound
	}
	r.st.leads[row.LeadID] = row
	return nil
}

func (r *LeadRepository) List(_ context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range r.st.leads {
		if filter.PartnerID != nil && l.PartnerID != *filter.PartnerID {
			continue
		}
		if filter.Status != "" && string(l.Status) != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].LeadID.String() < out[j].LeadID.String()
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

type KitRepository struct{ st *store }

func (r *KitRepository) Create(_ context.Context, row domain.Kit) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, k := range r.st.kits {
		if k.KitID == row.KitID || k.SKU == row.SKU {
			return domain.ErrConflict
		}
	}
	r.st.kits[row.KitID] = row
	return nil
}

func (r *KitRepository) Get(_ context.Context, kitID uuid.UUID) (domain.Kit, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.kits[kitID]
	if !ok {
		return domain.Kit{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *KitRepository) List(_ context.Context) ([]domain.Kit, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.Kit, 0, len(r.st.kits))
	for _, k := range r.st.kits {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *KitRepository) Restock(_ context.Context, kitID uuid.UUID, quantity int, at time.Time) (domain.Kit, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.kits[kitID]
	if !ok {
		return domain.Kit{}, domain.ErrNotFound
	}
	row.Quantity += quantity
	row.UpdatedAt = at
	r.st.kits[kitID] = row
	return row, nil
}

func (r *KitRepository) Distribute(_ context.Context, params ports.DistributeKitsParams) (ports.DistributionResult, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	kit, ok := r.st.kits[params.KitID]
	if !ok {
		return ports.DistributionResult{}, domain.ErrNotFound
	}
	if _, ok := r.st.partners[params.PartnerID]; !ok {
		return ports.DistributionResult{}, domain.ErrNotFound
	}
	if kit.Quantity < params.Quantity {
		return ports.DistributionResult{}, domain.ErrInsufficientStock
	}
	kit.Quantity -= params.Quantity
	kit.Distributed += params.Quantity
	kit.UpdatedAt = params.At
	r.st.kits[kit.KitID] = kit

	key := stockKey{partnerID: params.PartnerID, kitID: params.KitID}
	stock := r.st.stock[key]
	stock.PartnerID, stock.KitID, stock.SKU = params.PartnerID, params.KitID, kit.SKU
	stock.Quantity += params.Quantity
	stock.UpdatedAt = params.At
	r.st.stock[key] = stock

	dist := domain.KitDistribution{
		DistributionID: params.DistributionID,
		KitID:          params.KitID,
		PartnerID:      params.PartnerID,
		Quantity:       params.Quantity,
		DistributedBy:  params.DistributedBy,
		DistributedAt:  params.At,
	}
	r.st.distributions = append(r.st.distributions, dist)
	return ports.DistributionResult{Kit: kit, Stock: stock, Distribution: dist}, nil
}

func (r *KitRepository) ListPartnerStock(_ context.Context, partnerID uuid.UUID) ([]domain.PartnerKitStock, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.PartnerKitStock, 0)
	for key, row := range r.st.stock {
		if key.partnerID == partnerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

type SaleRepository struct{ st *store }

func (r *SaleRepository) Record(_ context.Context, params ports.RecordSaleParams) (domain.Sale, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	sale := params.Sale
	if _, ok := r.st.sales[sale.SaleID]; ok {
		return domain.Sale{}, domain.ErrConflict
	}
	if sale.OrderRef != "" {
		for _, existing := range r.st.sales {
			if existing.OrderRef == sale.OrderRef {
				return domain.Sale{}, domain.ErrConflict
			}
		}
	}
	key := stockKey{partnerID: sale.PartnerID, kitID: sale.KitID}
	var lead domain.Lead
	if params.ConvertLead {
		if sale.LeadID == nil {
			return domain.Sale{}, domain.ErrInvalidInput
		}
		var ok bool
		if lead, ok = r.st.leads[*sale.LeadID]; !ok {
			return domain.Sale{}, domain.ErrNotFound
		}
		if lead.Status.IsTerminal() {
			return domain.Sale{}, domain.ErrConflict
		}
	}
	if params.ConsumeStock {
		stock, ok := r.st.stock[key]
		if !ok || stock.Quantity < 1 {
			return domain.Sale{}, domain.ErrInsufficientStock
		}
		stock.Quantity--
		stock.UpdatedAt = sale.CreatedAt
		r.st.stock[key] = stock
	}
	if params.ConvertLead {
		saleID := sale.SaleID
		lead.Status = domain.LeadStatusConverted
		lead.ConvertedSaleID = &saleID
		lead.UpdatedAt = sale.CreatedAt
		r.st.leads[lead.LeadID] = lead
	}
	r.st.sales[sale.SaleID] = sale
	r.st.saleOrder = append(r.st.saleOrder, sale.SaleID)
	return sale, nil
}

func (r *SaleRepository) Get(_ context.Context, saleID uuid.UUID) (domain.Sale, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.sales[saleID]
	if !ok {
		return domain.Sale{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *SaleRepository) Cancel(_ context.Context, saleID uuid.UUID, at time.Time) (domain.Sale, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.sales[saleID]
	if !ok {
		return domain.Sale{}, domain.ErrNotFound
	}
	if row.Status != domain.SaleStatusCancelled {
		cancelled := at
		row.Status = domain.SaleStatusCancelled
		row.CancelledAt = &cancelled
		r.st.sales[saleID] = row
	}
	return row, nil
}

func (r *SaleRepository) List(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.Sale, 0)
	for _, id := range r.st.saleOrder {
		s := r.st.sales[id]
		if filter.PartnerID != nil && s.PartnerID != *filter.PartnerID {
			continue
		}
		if filter.From != nil && s.SoldAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !s.SoldAt.Before(*filter.To) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SoldAt.After(out[j].SoldAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *SaleRepository) ListByPartner(_ context.Context, partnerID uuid.UUID) ([]domain.Sale, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.Sale, 0)
	for _, id := range r.st.saleOrder {
		if s := r.st.sales[id]; s.PartnerID == partnerID {
			out = append(out, s)
		}
	}
	return out, nil
}

type SlabRepository struct{ st *store }

func (r *SlabRepository) Create(_ context.Context, row domain.CommissionSlab) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.slabs[row.SlabID]; ok {
		return domain.ErrConflict
	}
	r.st.slabs[row.SlabID] = row
	return nil
}

func (r *SlabRepository) Get(_ context.Context, slabID uuid.UUID) (domain.CommissionSlab, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.slabs[slabID]
	if !ok {
		return domain.CommissionSlab{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *SlabRepository) Update(_ context.Context, row domain.CommissionSlab) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.slabs[row.SlabID]; !ok {
		return domain.ErrNotFound
	}
	r.st.slabs[row.SlabID] = row
	return nil
}

func (r *SlabRepository) Delete(_ context.Context, slabID uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.slabs[slabID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.slabs, slabID)
	return nil
}

func (r *SlabRepository) List(_ context.Context) ([]domain.CommissionSlab, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.CommissionSlab, 0, len(r.st.slabs))
	for _, s := range r.st.slabs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlabID.String() < out[j].SlabID.String() })
	return out, nil
}

type PayoutRepository struct{ st *store }

func (r *PayoutRepository) CreateIfAbsent(_ context.Context, row domain.CommissionPayout) (domain.CommissionPayout, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	key := payoutKey{partnerID: row.PartnerID, period: row.Period}
	if existing, ok := r.st.payouts[key]; ok {
		return existing, false, nil
	}
	r.st.payouts[key] = row
	return row, true, nil
}

func (r *PayoutRepository) ListByPeriod(_ context.Context, period string) ([]domain.CommissionPayout, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.CommissionPayout, 0)
	for key, row := range r.st.payouts {
		if key.period == period {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartnerID.String() < out[j].PartnerID.String() })
	return out, nil
}

func (r *PayoutRepository) ListByPartner(_ context.Context, partnerID uuid.UUID) ([]domain.CommissionPayout, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.CommissionPayout, 0)
	for key, row := range r.st.payouts {
		if key.partnerID == partnerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

type TicketRepository struct{ st *store }

func (r *TicketRepository) Create(_ context.Context, row domain.Ticket) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.tickets[row.TicketID]; ok {
		return domain.ErrConflict
	}
	r.st.tickets[row.TicketID] = row
	return nil
}

func (r *TicketRepository) Get(_ context.Context, ticketID uuid.UUID) (domain.Ticket, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *TicketRepository) Update(_ context.Context, row domain.Ticket) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.tickets[row.TicketID]; !ok {
		return domain.ErrNotFound
	}
	r.st.tickets[row.TicketID] = row
	return nil
}

func (r *TicketRepository) List(_ context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for _, t := range r.st.tickets {
		if filter.PartnerID != nil && t.PartnerID != *filter.PartnerID {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return paginate(out, filter.Limit, filter.Offset), nil
}

type ReplyRepository struct{ st *store }

func (r *ReplyRepository) Add(_ context.Context, row domain.TicketReply) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.replies[row.TicketID] = append(r.st.replies[row.TicketID], row)
	return nil
}

func (r *ReplyRepository) ListByTicket(_ context.Context, ticketID uuid.UUID) ([]domain.TicketReply, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]domain.TicketReply(nil), r.st.replies[ticketID]...), nil
}

type NotificationRepository struct{ st *store }

func (r *NotificationRepository) CreateBatch(_ context.Context, items []domain.Notification) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, n := range items {
		r.st.notifications[n.NotificationID] = n
	}
	return nil
}

func (r *NotificationRepository) Get(_ context.Context, notificationID uuid.UUID) (domain.Notification, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.notifications[notificationID]
	if !ok {
		return domain.Notification{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *NotificationRepository) List(_ context.Context, recipients []string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	want := map[string]struct{}{}
	for _, rcpt := range recipients {
		want[rcpt] = struct{}{}
	}
	out := make([]domain.Notification, 0)
	for _, n := range r.st.notifications {
		if _, ok := want[n.RecipientID]; !ok {
			continue
		}
		if unreadOnly && !n.IsUnread() {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].NotificationID.String() < out[j].NotificationID.String()
	})
	return paginate(out, limit, offset), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, notificationID uuid.UUID, at time.Time) (domain.Notification, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.notifications[notificationID]
	if !ok {
		return domain.Notification{}, domain.ErrNotFound
	}
	row.MarkRead(at)
	r.st.notifications[notificationID] = row
	return row, nil
}
