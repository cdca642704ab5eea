package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/cratey/cratey/internal/domain"
)

const (
	ordersSheet  = "Orders"
	payoutsSheet = "Payouts"
)

var orderHeader = []any{
	"Order ID", "Created", "Status", "Buyer", "Artist", "Product", "Edition", "Edition #",
	"Amount", "Platform Fee", "Artist Payout", "Currency", "Downloads", "Stripe Session", "Payment Intent",
}

// XLSX writes orders as an Excel workbook with one row per order, a totals
// row and a per-artist payout sheet.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

func cents(v int64) float64 { return float64(v) / 100 }

func (XLSX) WriteOrders(w io.Writer, orders []domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(orderHeader), 1)
	if err := f.SetCellStyle(ordersSheet, "A1", last, bold); err != nil {
		return err
	}

	type payout struct {
		name          string
		sales         int
		gross, fee, p int64
	}
	byArtist := map[string]*payout{}
	var amount, fee, pay int64
	row := 2
	for _, o := range orders {
		edition := ""
		if o.EditionNumber != nil {
			edition = fmt.Sprint(*o.EditionNumber)
		}
		vals := []any{
			o.ID.String(), o.CreatedAt.Format("2006-01-02 15:04:05"), o.Status, o.BuyerEmail, o.ArtistName,
			o.ProductTitle, o.EditionName, edition,
			cents(o.AmountCents), cents(o.PlatformFeeCents), cents(o.ArtistPayoutCents),
			o.Currency, o.DownloadCount, o.StripeSessionID, o.StripePaymentIntent,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ordersSheet, cell, &vals); err != nil {
			return err
		}
		row++
		if o.Status != domain.OrderStatusPaid {
			continue
		}
		amount += o.AmountCents
		fee += o.PlatformFeeCents
		pay += o.ArtistPayoutCents
		a := byArtist[o.ArtistID.String()]
		if a == nil {
			a = &payout{name: o.ArtistName}
			byArtist[o.ArtistID.String()] = a
		}
		a.sales++
		a.gross += o.AmountCents
		a.fee += o.PlatformFeeCents
		a.p += o.ArtistPayoutCents
	}

	totals := []any{"Totals (paid)", "", "", "", "", "", "", "", cents(amount), cents(fee), cents(pay)}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(ordersSheet, cell, &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(ordersSheet, cell, fmt.Sprintf("K%d", row), bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(ordersSheet, "I2", fmt.Sprintf("K%d", row), money); err != nil {
		return err
	}
	if err := f.SetColWidth(ordersSheet, "A", "O", 18); err != nil {
		return err
	}

	if _, err := f.NewSheet(payoutsSheet); err != nil {
		return err
	}
	head := []any{"Artist", "Sales", "Gross", "Platform Fee", "Payout"}
	if err := f.SetSheetRow(payoutsSheet, "A1", &head); err != nil {
		return err
	}
	if err := f.SetCellStyle(payoutsSheet, "A1", "E1", bold); err != nil {
		return err
	}
	artists := make([]*payout, 0, len(byArtist))
	for _, a := range byArtist {
		artists = append(artists, a)
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].p > artists[j].p })
	for i, a := range artists {
		vals := []any{a.name, a.sales, cents(a.gross), cents(a.fee), cents(a.p)}
		if err := f.SetSheetRow(payoutsSheet, fmt.Sprintf("A%d", i+2), &vals); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(payoutsSheet, "A", "E", 18); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
