package admin

import (
	"cmp"
	"slices"
	"time"

	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
)

const (
	recentLimit   = 5
	topBooksLimit = 5
	lowStockLimit = 5
	LowStockLevel = 5
	activityDays  = 7
)

type Dashboard struct {
	TotalOrders  int
	TotalUsers   int
	TotalBooks   int
	Revenue      float64
	RecentOrders []api.Order
	RecentUsers  []api.User
}

type BookSales struct {
	BookID  api.ID
	Title   string
	Count   int
	Revenue float64
}

type Analytics struct {
	Revenue           float64
	AverageOrderValue float64
	OrdersLastWeek    int
	UsersLastWeek     int

	BuyOrders  int
	RentOrders int
	GiftOrders int

	RazorpayPayments int
	CODPayments      int

	TopBooks []BookSales
	LowStock []api.Book
}

// Revenue sums price times quantity over every item; a missing quantity adds nothing.
func Revenue(orders []api.Order) float64 {
	var total float64
	for _, o := range orders {
		for _, it := range o.Items {
			total += it.Price.Float() * it.Quantity.Float()
		}
	}
	return total
}

// BuildDashboard expects orders already deduplicated.
func BuildDashboard(orders []api.Order, users []api.User, books []api.Book) Dashboard {
	return Dashboard{
		TotalOrders:  len(orders),
		TotalUsers:   len(users),
		TotalBooks:   len(books),
		Revenue:      Revenue(orders),
		RecentOrders: orders[:min(recentLimit, len(orders))],
		RecentUsers:  users[:min(recentLimit, len(users))],
	}
}

func BuildAnalytics(orders []api.Order, users []api.User, books []api.Book, now time.Time) Analytics {
	a := Analytics{Revenue: Revenue(orders)}
	if len(orders) > 0 {
		a.AverageOrderValue = a.Revenue / float64(len(orders))
	}

	since := now.AddDate(0, 0, -activityDays)
	for _, o := range orders {
		if created, ok := api.ParseTime(o.CreatedAt); ok && !created.Before(since) {
			a.OrdersLastWeek++
		}
		switch o.Mode {
		case "", string(checkout.ModeBuy):
			a.BuyOrders++
		case string(checkout.ModeRent):
			a.RentOrders++
		case string(checkout.ModeGift):
			a.GiftOrders++
		}
		switch o.PaymentMethod {
		case checkout.PaymentRazorpay:
			a.RazorpayPayments++
		case checkout.PaymentCOD:
			a.CODPayments++
		}
	}
	for _, u := range users {
		if created, ok := api.ParseTime(u.CreatedAt); ok && !created.Before(since) {
			a.UsersLastWeek++
		}
	}

	a.TopBooks = TopBooks(orders, topBooksLimit)
	a.LowStock = LowStock(books, lowStockLimit)
	return a
}

// TopBooks ranks books by units sold. Items without a quantity count once.
func TopBooks(orders []api.Order, limit int) []BookSales {
	byID := map[api.ID]*BookSales{}
	var order []api.ID
	for _, o := range orders {
		for _, it := range o.Items {
			qty := it.Quantity.Int()
			if qty == 0 {
				qty = 1
			}
			s, ok := byID[it.BookID]
			if !ok {
				title := it.Title
				if title == "" {
					title = "Book #" + it.BookID.String()
				}
				s = &BookSales{BookID: it.BookID, Title: title}
				byID[it.BookID] = s
				order = append(order, it.BookID)
			}
			s.Count += qty
			s.Revenue += it.Price.Float() * float64(qty)
		}
	}

	out := make([]BookSales, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortStableFunc(out, func(a, b BookSales) int { return cmp.Compare(b.Count, a.Count) })
	return out[:min(limit, len(out))]
}

// LowStock lists books at or below LowStockLevel, scarcest first. A missing stock counts as zero.
func LowStock(books []api.Book, limit int) []api.Book {
	out := make([]api.Book, 0)
	for _, b := range books {
		if b.StockCount() <= LowStockLevel {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b api.Book) int { return cmp.Compare(a.StockCount(), b.StockCount()) })
	return out[:min(limit, len(out))]
}
