package checkout

import (
	"testing"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	books = map[string]api.Book{
		"b1": {ID: "b1", Title: "Clean Code", Price: 500},
		"b2": {ID: "b2", Title: "Dune", Price: 199.99},
	}
)

func TestCompute_Buy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		speed     string
		payment   string
		wantShip  float64
		wantCOD   float64
		wantTotal float64
		wantETA   time.Time
	}{
		{name: "standard razorpay", speed: "standard", payment: "razorpay", wantShip: 30, wantTotal: 1229.99, wantETA: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)},
		{name: "express cod", speed: "express", payment: "cod", wantShip: 70, wantCOD: 10, wantTotal: 1279.99, wantETA: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "priority", speed: "priority", payment: "razorpay", wantShip: 120, wantTotal: 1319.99, wantETA: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{name: "default speed", speed: "", payment: "", wantShip: 30, wantTotal: 1229.99, wantETA: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)},
		{name: "unknown speed", speed: "teleport", payment: "razorpay", wantShip: 30, wantTotal: 1229.99, wantETA: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sum := Compute([]CartLine{{BookID: "b1", Qty: 2}, {BookID: "b2", Qty: 1}}, books,
				Selection{Mode: ModeBuy, Speed: tc.speed, Payment: tc.payment}, now)

			require.Len(t, sum.Lines, 2)
			assert.InDelta(t, 1000, sum.Lines[0].Total, 1e-9)
			assert.InDelta(t, 1199.99, sum.Subtotal, 1e-9)
			assert.InDelta(t, tc.wantShip, sum.ShippingFee, 1e-9)
			assert.InDelta(t, tc.wantCOD, sum.CODFee, 1e-9)
			assert.InDelta(t, tc.wantTotal, sum.Total, 1e-9)
			assert.True(t, sum.NeedsShipping)
			require.NotNil(t, sum.DeliveryETA)
			assert.Equal(t, tc.wantETA, *sum.DeliveryETA)
			assert.Nil(t, sum.DueDate)
		})
	}
}

func TestSelection_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          Selection
		wantMode    Mode
		wantSpeed   string
		wantPayment string
		wantDays    int
	}{
		{name: "defaults", in: Selection{}, wantMode: ModeBuy, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 30},
		{name: "buy cod kept", in: Selection{Mode: ModeBuy, Speed: " Express ", Payment: "COD"}, wantMode: ModeBuy, wantSpeed: SpeedExpress, wantPayment: PaymentCOD, wantDays: 30},
		{name: "unknown speed", in: Selection{Mode: ModeBuy, Speed: "bogus", Payment: "razorpay"}, wantMode: ModeBuy, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 30},
		{name: "buy unknown payment", in: Selection{Mode: ModeBuy, Payment: "upi"}, wantMode: ModeBuy, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 30},
		{name: "rent unknown payment", in: Selection{Mode: ModeRent, Payment: "upi", RentalDays: 60}, wantMode: ModeRent, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 60},
		{name: "rent cod", in: Selection{Mode: ModeRent, Payment: "cod"}, wantMode: ModeRent, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 30},
		{name: "gift wallet", in: Selection{Mode: ModeGift, Payment: "wallet", RentalDays: -4}, wantMode: ModeGift, wantSpeed: SpeedStandard, wantPayment: PaymentRazorpay, wantDays: 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tc.in.Normalize()
			assert.Equal(t, tc.wantMode, got.Mode)
			assert.Equal(t, tc.wantSpeed, got.Speed)
			assert.Equal(t, tc.wantPayment, got.Payment)
			assert.Equal(t, tc.wantDays, got.RentalDays)
		})
	}
}

func TestCompute_Rent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		days     int
		wantUnit float64
		wantDue  time.Time
	}{
		{name: "thirty days", days: 30, wantUnit: 175, wantDue: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{name: "default period", days: 0, wantUnit: 175, wantDue: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{name: "sixty days", days: 60, wantUnit: 275, wantDue: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sum := Compute([]CartLine{{BookID: "b1", Qty: 2}}, books,
				Selection{Mode: ModeRent, Speed: "express", Payment: "cod", RentalDays: tc.days}, now)

			require.Len(t, sum.Lines, 1)
			assert.InDelta(t, tc.wantUnit, sum.Lines[0].Unit, 1e-9)
			assert.InDelta(t, tc.wantUnit*2, sum.Total, 1e-9)
			assert.Zero(t, sum.ShippingFee)
			assert.Zero(t, sum.CODFee)
			assert.Equal(t, PaymentRazorpay, sum.Payment)
			assert.False(t, sum.NeedsShipping)
			assert.Nil(t, sum.DeliveryETA)
			require.NotNil(t, sum.DueDate)
			assert.Equal(t, tc.wantDue, *sum.DueDate)
		})
	}
}

func TestCompute_GiftAndUnknownBook(t *testing.T) {
	t.Parallel()

	sum := Compute([]CartLine{{BookID: "b2", Qty: 0}, {BookID: "missing", Qty: 3}}, books,
		Selection{Mode: "gift", Payment: "cod"}, now)

	require.Len(t, sum.Lines, 2)
	assert.Equal(t, 1, sum.Lines[0].Qty)
	assert.Equal(t, "Item", sum.Lines[1].Title)
	assert.Zero(t, sum.Lines[1].Total)
	assert.InDelta(t, 199.99, sum.Total, 1e-9)
	assert.Equal(t, PaymentRazorpay, sum.Payment)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), sum.OrderDate)
}

func TestToday_UsesLocalCalendarDate(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC).In(ist)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Today(late))
}

func TestBuildOrder_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lines   []CartLine
		mode    Mode
		in      OrderInput
		wantMsg string
	}{
		{name: "empty cart", mode: ModeBuy, in: OrderInput{AddressID: "a1"}, wantMsg: "Your cart is empty"},
		{name: "gift without email", lines: []CartLine{{BookID: "b1", Qty: 1}}, mode: ModeGift, wantMsg: "Enter a valid gift email"},
		{name: "gift bad email", lines: []CartLine{{BookID: "b1", Qty: 1}}, mode: ModeGift, in: OrderInput{GiftEmail: "a@b"}, wantMsg: "Enter a valid gift email"},
		{name: "buy without address", lines: []CartLine{{BookID: "b1", Qty: 1}}, mode: ModeBuy, in: OrderInput{AddressID: "  "}, wantMsg: "Select or add an address"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sum := Compute(tc.lines, books, Selection{Mode: tc.mode}, now)
			_, err := BuildOrder(sum, tc.in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.wantMsg, ValidationMessage(err))
		})
	}
}

func TestBuildOrder_Buy(t *testing.T) {
	t.Parallel()

	sum := Compute([]CartLine{{BookID: "b1", Qty: 2}}, books, Selection{Mode: ModeBuy, Speed: "express", Payment: "cod"}, now)
	req, err := BuildOrder(sum, OrderInput{AddressID: "a1", Notes: "  ring bell "})
	require.NoError(t, err)

	assert.Equal(t, "buy", req.Mode)
	assert.Equal(t, []api.OrderLine{{BookID: "b1", Quantity: 2}}, req.Items)
	require.NotNil(t, req.ShippingAddressID)
	assert.Equal(t, "a1", *req.ShippingAddressID)
	require.NotNil(t, req.ShippingSpeed)
	assert.Equal(t, "express", *req.ShippingSpeed)
	assert.Equal(t, "cod", req.PaymentMethod)
	assert.InDelta(t, 70, req.ShippingFee, 1e-9)
	assert.InDelta(t, 10, req.CODFee, 1e-9)
	require.NotNil(t, req.DeliveryETA)
	assert.Equal(t, "2025-03-04T00:00:00.000Z", *req.DeliveryETA)
	require.NotNil(t, req.Notes)
	assert.Equal(t, "ring bell", *req.Notes)
	assert.Nil(t, req.RentalDuration)
	assert.Nil(t, req.GiftEmail)
}

func TestBuildOrder_RentAndGift(t *testing.T) {
	t.Parallel()

	rent := Compute([]CartLine{{BookID: "b1", Qty: 1}}, books, Selection{Mode: ModeRent, RentalDays: 60}, now)
	req, err := BuildOrder(rent, OrderInput{AddressID: "ignored"})
	require.NoError(t, err)
	assert.Nil(t, req.ShippingAddressID)
	assert.Nil(t, req.ShippingSpeed)
	assert.Nil(t, req.DeliveryETA)
	assert.Nil(t, req.Notes)
	require.NotNil(t, req.RentalDuration)
	assert.Equal(t, 60, *req.RentalDuration)

	gift := Compute([]CartLine{{BookID: "b2", Qty: 1}}, books, Selection{Mode: ModeGift}, now)
	req, err = BuildOrder(gift, OrderInput{GiftEmail: " friend@mail.com "})
	require.NoError(t, err)
	require.NotNil(t, req.GiftEmail)
	assert.Equal(t, "friend@mail.com", *req.GiftEmail)
	assert.Zero(t, req.ShippingFee)
}

func num(v float64) *api.Number {
	n := api.Number(v)
	return &n
}

func TestTotalsFor(t *testing.T) {
	t.Parallel()

	items := []api.OrderItem{{BookID: "b1", Price: 100, Quantity: 2}, {BookID: "b2", Price: 50}}

	tests := []struct {
		name      string
		order     api.Order
		wantShip  float64
		wantCOD   float64
		wantGrand float64
		wantETA   string
		wantShow  bool
	}{
		{
			name:      "stored fees and eta",
			order:     api.Order{Items: items, ShippingFee: num(0), CODFee: num(0), DeliveryETA: "2025-03-06T00:00:00.000Z", ShippingSpeed: "standard"},
			wantGrand: 200, wantETA: "06 Mar 2025", wantShow: true,
		},
		{
			name:     "fees from speed and cod",
			order:    api.Order{Items: items, ShippingSpeed: "express", PaymentMethod: "cod", CreatedAt: "2025-03-01T10:00:00Z"},
			wantShip: 70, wantCOD: 10, wantGrand: 280, wantETA: "04 Mar 2025", wantShow: true,
		},
		{
			name:     "speed without created date",
			order:    api.Order{Items: items, ShippingSpeed: "priority"},
			wantShip: 120, wantGrand: 320, wantETA: "Depends on priority", wantShow: true,
		},
		{
			name:      "digital order",
			order:     api.Order{Items: items, Mode: "rent"},
			wantGrand: 200, wantETA: "-",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := TotalsFor(tc.order)
			assert.InDelta(t, 200, got.ItemsTotal, 1e-9)
			assert.InDelta(t, tc.wantShip, got.ShippingFee, 1e-9)
			assert.InDelta(t, tc.wantCOD, got.CODFee, 1e-9)
			assert.InDelta(t, tc.wantGrand, got.GrandTotal, 1e-9)
			assert.Equal(t, tc.wantETA, got.ETA)
			assert.Equal(t, tc.wantShow, got.ShowETA)
		})
	}
}

func TestDedupeOrders(t *testing.T) {
	t.Parallel()

	in := []api.Order{{ID: "3", Mode: "buy"}, {ID: "1"}, {ID: "3", Mode: "rent"}, {}, {ID: "2"}, {ID: "1"}}
	got := DedupeOrders(in)

	require.Len(t, got, 3)
	assert.Equal(t, []api.ID{"3", "1", "2"}, []api.ID{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "buy", got[0].Mode)
}

func TestRentalActive(t *testing.T) {
	t.Parallel()

	assert.True(t, RentalActive("2025-03-02T00:00:00Z", now))
	assert.False(t, RentalActive("2025-02-28T00:00:00Z", now))
	assert.False(t, RentalActive("", now))
}
