package views

import (
	"net/url"

	"github.com/a-h/templ"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/profile"
)

type ProfileView struct {
	User      *api.User
	Kind      profile.AccountKind
	Addresses []api.Address
	Cards     []api.Card
}

func Profile(v ProfileView) templ.Component {
	u := v.User
	return component(func(p *writer) {
		p.raw(`<section id="profile" class="profile">`)
		if u.ProfilePic != "" {
			p.f(`<img class="avatar" src="%s" alt="%s"/>`, templ.URL(u.ProfilePic), u.Name)
		}
		p.f(`<h3>%s</h3><p class="muted">%s</p>`, u.Name, u.Email)
		if v.Kind == profile.AccountGoogle {
			p.raw(`<span class="tag">Google account</span>`)
		}

		p.raw(`<form hx-post="/profile" hx-target="#profile" hx-swap="outerHTML" hx-encoding="multipart/form-data"><h4>Edit profile</h4>`)
		p.f(`<label>Name <input name="name" value="%s" required/></label>`, u.Name)
		p.f(`<label>Phone <input name="phone" value="%s"/></label>`, u.Phone)
		p.f(`<label>Bio <textarea name="bio">%s</textarea></label>`, u.Bio)
		p.f(`<label>Picture URL <input name="profile_pic_url" value="%s"/></label>`, u.ProfilePic)
		p.raw(`<label>Or upload <input type="file" name="profile_pic" accept="image/*"/></label>`)
		p.raw(`<button class="btn primary" type="submit">Save</button></form>`)

		if v.Kind != profile.AccountGoogle {
			p.raw(`<form hx-post="/profile/password" hx-swap="none" hx-on::after-request="if(event.detail.successful) this.reset()"><h4>Change password</h4>`)
			p.raw(`<input type="password" name="current_password" placeholder="Current password" autocomplete="current-password"/>`)
			p.raw(`<input type="password" name="new_password" placeholder="New password" autocomplete="new-password"/>`)
			p.raw(`<input type="password" name="confirm_password" placeholder="Confirm new password" autocomplete="new-password"/>`)
			p.raw(`<button class="btn" type="submit">Update password</button></form>`)
		}

		if !u.IsAdmin {
			p.render(addressBook(v.Addresses))
		}
		p.render(cards(v.Cards))
		p.raw(`</section>`)
	})
}

func addressBook(addrs []api.Address) templ.Component {
	return component(func(p *writer) {
		p.raw(`<div class="addresses"><h4>Addresses</h4>`)
		if len(addrs) == 0 {
			p.raw(`<p class="muted">No saved addresses.</p>`)
		}
		p.raw(`<ul>`)
		for _, a := range addrs {
			p.f(`<li><strong>%s</strong> %s, %s, %s, %s %s `, a.Label, a.Recipient, a.Street, a.City, a.State, a.Zip)
			p.f(`<button class="btn ghost small" hx-delete="/profile/addresses/%s" hx-target="#profile" hx-swap="outerHTML">Delete</button></li>`, url.PathEscape(a.ID.String()))
		}
		p.raw(`</ul>`)
		p.raw(`<form hx-post="/profile/addresses" hx-target="#profile" hx-swap="outerHTML">`)
		for _, f := range [][2]string{{"label", "Label (Home, Work)"}, {"recipient", "Recipient"}, {"street", "Street"}, {"city", "City"}, {"state", "State"}, {"zip", "PIN code"}} {
			p.f(`<input name="%s" placeholder="%s"/>`, f[0], f[1])
		}
		p.raw(`<button class="btn" type="submit">Add address</button></form></div>`)
	})
}

func cards(cs []api.Card) templ.Component {
	return component(func(p *writer) {
		p.raw(`<div class="cards"><h4>Saved cards</h4>`)
		if len(cs) == 0 {
			p.raw(`<p class="muted">No saved cards.</p>`)
		}
		p.raw(`<ul>`)
		for _, c := range cs {
			id := url.PathEscape(c.ID.String())
			p.f(`<li>%s •••• %s (%02d/%d) %s `, c.Brand, string(c.Last4), c.ExpMonth.Int(), c.ExpYear.Int(), c.Holder)
			if c.IsDefault {
				p.raw(`<span class="tag">Default</span> `)
			} else {
				p.f(`<button class="btn ghost small" hx-post="/profile/cards/%s/default" hx-target="#profile" hx-swap="outerHTML">Make default</button> `, id)
			}
			p.f(`<button class="btn ghost small" hx-delete="/profile/cards/%s" hx-target="#profile" hx-swap="outerHTML">Delete</button></li>`, id)
		}
		p.raw(`</ul>`)
		p.raw(`<form hx-post="/profile/cards" hx-target="#profile" hx-swap="outerHTML">`)
		p.raw(`<input name="holder_name" placeholder="Name on card"/><input name="card_number" inputmode="numeric" placeholder="Card number"/>`)
		p.raw(`<input name="exp_month" type="number" min="1" max="12" placeholder="MM"/><input name="exp_year" type="number" min="2000" placeholder="YYYY"/>`)
		p.raw(`<button class="btn" type="submit">Add card</button></form></div>`)
	})
}
