package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(v string) error {
	switch v {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	return table
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func slabName(ref *domain.SlabRef) string {
	if ref == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s%%)", ref.Name, strconv.FormatFloat(ref.RatePercent, 'f', -1, 64))
}

func renderStatement(w io.Writer, result application.StatementResult) {
	fmt.Fprintf(w, "Partner %s  currency %s  renewal factor %s\n",
		result.PartnerID, result.Currency, strconv.FormatFloat(result.DepreciationFactor, 'f', -1, 64))
	table := newTable(w, "Period", "1st month", "1st slab", "1st total", "2nd month", "2nd slab", "2nd total", "Total")
	for _, p := range result.Periods {
		table.Append([]string{
			p.Period,
			strconv.Itoa(p.FirstMonthCount),
			slabName(p.FirstMonthSlab),
			money(p.FirstMonthTotal),
			strconv.Itoa(p.SecondMonthCount),
			slabName(p.SecondMonthSlab),
			money(p.SecondMonthTotal),
			money(p.Total),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "", "Grand total", money(result.GrandTotal)})
	table.Render()

	if pr := result.Progress; pr != nil && pr.NextSlab != nil {
		fmt.Fprintf(w, "%d more sale(s) in %s to reach %s\n", pr.SalesNeeded, pr.Period, slabName(pr.NextSlab))
	}
}

func renderReport(w io.Writer, report application.CommissionReport) {
	fmt.Fprintf(w, "Commission report %s (%s)\n", report.Period, report.Currency)
	table := newTable(w, "Partner", "Name", "1st month", "2nd month", "1st total", "2nd total", "Total")
	for _, row := range report.Rows {
		table.Append([]string{
			row.PartnerID,
			row.PartnerName,
			strconv.Itoa(row.FirstMonthCount),
			strconv.Itoa(row.SecondMonthCount),
			money(row.FirstMonthTotal),
			money(row.SecondMonthTotal),
			money(row.Total),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "Total", money(report.Total)})
	table.Render()
}

func renderCloseMonth(w io.Writer, result application.CloseMonthResult) {
	fmt.Fprintf(w, "Closed %s: %d new payout(s), %d already closed\n", result.Period, result.Created, result.Existing)
	table := newTable(w, "Partner", "1st month", "2nd month", "Total", "Closed by")
	for _, p := range result.Payouts {
		table.Append([]string{
			p.PartnerID.String(),
			strconv.Itoa(p.FirstMonthCount),
			strconv.Itoa(p.SecondMonthCount),
			money(p.Total),
			p.ClosedBy,
		})
	}
	table.SetFooter([]string{"", "", "Total", money(result.Total), ""})
	table.Render()
}

func renderStock(w io.Writer, stock []domain.PartnerKitStock) {
	table := newTable(w, "Kit", "SKU", "Quantity", "Updated")
	for _, s := range stock {
		table.Append([]string{s.KitID.String(), s.SKU, strconv.Itoa(s.Quantity), s.UpdatedAt.Format("2006-01-02 15:04")})
	}
	table.Render()
}

func renderKits(w io.Writer, kits []domain.Kit) {
	table := newTable(w, "Kit", "SKU", "Name", "Unit price", "Warehouse", "Distributed")
	for _, k := range kits {
		table.Append([]string{k.KitID.String(), k.SKU, k.Name, money(k.UnitPrice), strconv.Itoa(k.Quantity), strconv.Itoa(k.Distributed)})
	}
	table.Render()
}
