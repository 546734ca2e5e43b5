package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/admin"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/checkout"
)

func statCard(class, icon, value, label string) templ.Component {
	return component(func(p *writer) {
		p.f(`<div class="stat-card %s"><div class="stat-icon">%s</div><div class="stat-value">%s</div><div class="stat-label">%s</div></div>`, class, icon, value, label)
	})
}

func AdminDashboard(d admin.Dashboard) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="admin-main" class="admin"><div class="admin-stats">`)
		p.render(statCard("orders", "📦", strconv.Itoa(d.TotalOrders), "Total Orders"))
		p.render(statCard("users", "👥", strconv.Itoa(d.TotalUsers), "Total Users"))
		p.render(statCard("books", "📚", strconv.Itoa(d.TotalBooks), "Total Books"))
		p.render(statCard("revenue", "💰", Money(d.Revenue), "Total Revenue"))
		p.raw(`</div><h4>Recent orders</h4>`)
		p.render(orderTable(d.RecentOrders))
		p.raw(`<h4>Recent users</h4>`)
		p.render(userTable(d.RecentUsers))
		p.raw(`</section>`)
	})
}

func AdminAnalytics(a admin.Analytics) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="admin-main" class="admin"><h3>Analytics &amp; Insights</h3><div class="admin-stats">`)
		p.render(statCard("orders", "💵", "₹"+printer.Sprintf("%.0f", a.AverageOrderValue), "Avg Order Value"))
		p.render(statCard("users", "📈", strconv.Itoa(a.OrdersLastWeek), "Orders (7 days)"))
		p.render(statCard("books", "🆕", strconv.Itoa(a.UsersLastWeek), "New Users (7 days)"))
		p.render(statCard("revenue", "⚠️", strconv.Itoa(len(a.LowStock)), "Low Stock Books"))
		p.raw(`</div><div class="grid">`)
		p.f(`<div class="card"><h4>Order types</h4><p>Buy: %d</p><p>Rent: %d</p><p>Gift: %d</p></div>`, a.BuyOrders, a.RentOrders, a.GiftOrders)
		p.f(`<div class="card"><h4>Payments</h4><p>Razorpay: %d</p><p>COD: %d</p></div>`, a.RazorpayPayments, a.CODPayments)
		p.raw(`</div><h4>Popular books</h4>`)
		if len(a.TopBooks) == 0 {
			p.raw(`<p class="muted">No sales yet.</p>`)
		} else {
			p.raw(`<table class="table"><thead><tr><th>#</th><th>Book</th><th>Sold</th><th>Revenue</th></tr></thead><tbody>`)
			for i, b := range a.TopBooks {
				p.f(`<tr><td>%d</td><td>%s</td><td>%d</td><td>%s</td></tr>`, i+1, b.Title, b.Count, Money(b.Revenue))
			}
			p.raw(`</tbody></table>`)
		}
		p.raw(`<h4>Low stock</h4>`)
		if len(a.LowStock) == 0 {
			p.raw(`<p class="muted">All books are well stocked.</p>`)
		} else {
			p.raw(`<ul>`)
			for _, b := range a.LowStock {
				p.f(`<li>%s <span class="tag">%d left</span></li>`, b.Title, b.StockCount())
			}
			p.raw(`</ul>`)
		}
		p.raw(`</section>`)
	})
}

func AdminOrders(orders []api.Order) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="admin-main" class="admin"><h3>Orders</h3>`)
		p.render(orderTable(orders))
		p.raw(`</section>`)
	})
}

func orderTable(orders []api.Order) templ.Component {
	return component(func(p *writer) {
		if len(orders) == 0 {
			p.raw(`<p class="muted">No orders.</p>`)
			return
		}
		p.raw(`<table class="table"><thead><tr><th>ID</th><th>Customer</th><th>Mode</th><th>Items</th><th>Total</th><th>Payment</th><th>Date</th></tr></thead><tbody>`)
		for _, o := range orders {
			t := checkout.TotalsFor(o)
			customer := o.UserName
			if customer == "" {
				customer = o.UserEmail
			}
			p.f(`<tr><td>#%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				o.ID, customer, modeName(o.Mode), len(o.Items), Money(t.GrandTotal), o.PaymentMethod, Date(o.CreatedAt))
		}
		p.raw(`</tbody></table>`)
	})
}

func AdminUsers(users []api.User) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="admin-main" class="admin"><h3>Users</h3>`)
		p.render(userTable(users))
		p.raw(`</section>`)
	})
}

func userTable(users []api.User) templ.Component {
	return component(func(p *writer) {
		if len(users) == 0 {
			p.raw(`<p class="muted">No users.</p>`)
			return
		}
		p.raw(`<table class="table"><thead><tr><th>ID</th><th>Name</th><th>Email</th><th>Role</th><th>Joined</th></tr></thead><tbody>`)
		for _, u := range users {
			role := "Customer"
			if u.IsAdmin {
				role = "Admin"
			}
			p.f(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`, u.ID, u.Name, u.Email, role, Date(u.CreatedAt))
		}
		p.raw(`</tbody></table>`)
	})
}

// AdminBooks lists the catalog with inline stock edits. editing prefills the
// form when set.
func AdminBooks(books []api.Book, editing *api.Book) templ.Component {
	return component(func(p *writer) {
		p.raw(`<section id="admin-main" class="admin"><h3>Books</h3>`)
		p.render(bookForm(editing))
		if len(books) == 0 {
			p.raw(`<p class="muted">No books.</p></section>`)
			return
		}
		p.raw(`<table class="table"><thead><tr><th>Title</th><th>Author</th><th>Price</th><th>Stock</th><th></th></tr></thead><tbody>`)
		for _, b := range books {
			id := url.PathEscape(b.ID.String())
			p.f(`<tr><td>%s</td><td>%s</td><td>%s</td>`, b.Title, b.Author, Money(b.Price))
			p.f(`<td><input type="number" min="0" name="stock" value="%d" hx-post="/admin/books/%s/stock" hx-trigger="change" hx-swap="none"/></td>`, b.StockCount(), id)
			p.f(`<td><button class="btn ghost small" hx-get="/fragments/admin/books?edit=%s" hx-target="#admin-main" hx-swap="outerHTML">Edit</button> `, url.QueryEscape(b.ID.String()))
			p.f(`<button class="btn bad small" hx-delete="/admin/books/%s" hx-target="#admin-main" hx-swap="outerHTML" hx-confirm="Delete this book?">Delete</button></td></tr>`, id)
		}
		p.raw(`</tbody></table></section>`)
	})
}

func bookForm(b *api.Book) templ.Component {
	return component(func(p *writer) {
		var cur api.Book
		title := "Add book"
		if b != nil {
			cur = *b
			title = "Edit book"
		}
		p.raw(`<form id="admin-book-form" hx-post="/admin/books" hx-target="#admin-main" hx-swap="outerHTML" hx-encoding="multipart/form-data">`)
		p.f(`<h4>%s</h4><input type="hidden" name="id" value="%s"/>`, title, cur.ID)
		p.f(`<input name="title" placeholder="Title" value="%s" required/>`, cur.Title)
		p.f(`<input name="author" placeholder="Author" value="%s" required/>`, cur.Author)
		p.f(`<input name="price" type="number" step="0.01" min="0" placeholder="Price" value="%s"/>`, strconv.FormatFloat(cur.Price, 'f', -1, 64))
		p.f(`<input name="stock" type="number" min="0" placeholder="Stock" value="%d"/>`, cur.StockCount())
		p.f(`<input name="page_count" type="number" min="0" placeholder="Pages" value="%d"/>`, cur.PageCount)
		p.f(`<textarea name="description" placeholder="Description">%s</textarea>`, cur.Description)
		p.raw(`<label>Cover <input type="file" name="cover_image" accept="image/*"/></label>`)
		p.raw(`<label>Content <input type="file" name="book_content" accept=".pdf,.html,.epub"/></label>`)
		p.raw(`<label>Sample <input type="file" name="book_sample" accept=".pdf,.html"/></label>`)
		p.raw(`<button class="btn primary" type="submit">Save</button>`)
		if b != nil {
			p.raw(` <button type="button" class="btn ghost" hx-get="/fragments/admin/books" hx-target="#admin-main" hx-swap="outerHTML">Cancel</button>`)
		}
		p.raw(`</form>`)
	})
}
