package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cratey/cratey/internal/domain"
)

func TestWriteOrders(t *testing.T) {
	artist := uuid.New()
	ed := 3
	orders := []domain.Order{
		{ID: uuid.New(), Status: domain.OrderStatusPaid, BuyerEmail: "a@x.com", ArtistID: artist, ArtistName: "Night Drive",
			ProductTitle: "Neon", AmountCents: 999, PlatformFeeCents: 80, ArtistPayoutCents: 919, Currency: "USD",
			EditionName: "Lathe", EditionNumber: &ed, CreatedAt: time.Now()},
		{ID: uuid.New(), Status: domain.OrderStatusPaid, BuyerEmail: "b@x.com", ArtistID: artist, ArtistName: "Night Drive",
			ProductTitle: "Tapes", AmountCents: 750, PlatformFeeCents: 60, ArtistPayoutCents: 690, Currency: "USD", CreatedAt: time.Now()},
		{ID: uuid.New(), Status: domain.OrderStatusRefunded, BuyerEmail: "c@x.com", ArtistID: artist, ArtistName: "Night Drive",
			ProductTitle: "Tapes", AmountCents: 750, PlatformFeeCents: 60, ArtistPayoutCents: 690, Currency: "USD", CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSX().WriteOrders(&buf, orders))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Order ID", rows[0][0])
	assert.Equal(t, "a@x.com", rows[1][3])
	assert.Equal(t, "3", rows[1][7])
	assert.Equal(t, "Totals (paid)", rows[4][0])

	total, err := f.GetCellValue(ordersSheet, "I5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "17.49", total)

	payouts, err := f.GetRows(payoutsSheet)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, []string{"Night Drive", "2"}, payouts[1][:2])
}

func TestWriteOrdersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSX().WriteOrders(&buf, nil))
	assert.NotZero(t, buf.Len())
}
