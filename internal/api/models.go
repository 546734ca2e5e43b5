package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Book struct {
	ID          ID      `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	Stock       *int    `json:"stock,omitempty"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Genre       string  `json:"genre,omitempty"`
	PageCount   int     `json:"page_count,omitempty"`
}

func (b *Book) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          ID      `json:"id"`
		Title       Text    `json:"title"`
		Author      Text    `json:"author"`
		Price       Number  `json:"price"`
		Stock       *Number `json:"stock"`
		Description string  `json:"description"`
		Desc        string  `json:"desc"`
		ImageURL    string  `json:"image_url"`
		Cover       string  `json:"cover"`
		Genre       string  `json:"genre"`
		PageCount   Number  `json:"page_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Book{
		ID:          raw.ID,
		Title:       string(raw.Title),
		Author:      string(raw.Author),
		Price:       raw.Price.Float(),
		Description: firstNonEmpty(raw.Description, raw.Desc),
		ImageURL:    firstNonEmpty(raw.ImageURL, raw.Cover),
		Genre:       raw.Genre,
		PageCount:   raw.PageCount.Int(),
	}
	if raw.Stock != nil {
		s := raw.Stock.Int()
		b.Stock = &s
	}
	return nil
}

// StockCount treats a missing stock as zero.
func (b Book) StockCount() int {
	if b.Stock == nil {
		return 0
	}
	return *b.Stock
}

type BooksPage struct {
	Books []Book `json:"books"`
	Page  int    `json:"page"`
	Total int    `json:"total"`
}

// decodeBooksPage accepts either {books, page, total} or a bare array.
func decodeBooksPage(raw []byte) (BooksPage, error) {
	books, err := listOf[Book](raw, "books")
	if err != nil {
		return BooksPage{}, err
	}
	page := BooksPage{Books: books, Page: 1, Total: len(books)}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var meta struct {
			Page  *Number `json:"page"`
			Total *Number `json:"total"`
		}
		if err := json.Unmarshal(trimmed, &meta); err == nil {
			if meta.Page != nil {
				page.Page = meta.Page.Int()
			}
			if meta.Total != nil {
				page.Total = meta.Total.Int()
			}
		}
	}
	return page, nil
}

type User struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Bio         string    `json:"bio"`
	ProfilePic  string    `json:"profile_pic"`
	Addresses   []Address `json:"addresses"`
	Cards       []Card    `json:"cards"`
	IsAdmin     bool      `json:"is_admin"`
	HasPassword *int      `json:"has_password,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          ID              `json:"id"`
		Name        Text            `json:"name"`
		Email       Text            `json:"email"`
		Phone       Text            `json:"phone"`
		Bio         Text            `json:"bio"`
		ProfilePic  Text            `json:"profile_pic"`
		Addresses   json.RawMessage `json:"addresses"`
		Cards       json.RawMessage `json:"cards"`
		IsAdmin     Flag            `json:"is_admin"`
		HasPassword *Number         `json:"has_password"`
		CreatedAt   Text            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{
		ID:         raw.ID,
		Name:       string(raw.Name),
		Email:      string(raw.Email),
		Phone:      string(raw.Phone),
		Bio:        string(raw.Bio),
		ProfilePic: string(raw.ProfilePic),
		IsAdmin:    bool(raw.IsAdmin),
		CreatedAt:  string(raw.CreatedAt),
		Addresses:  []Address{},
		Cards:      []Card{},
	}
	if raw.HasPassword != nil {
		hp := raw.HasPassword.Int()
		u.HasPassword = &hp
	}
	if isArray(raw.Addresses) {
		var addrs []Address
		if err := json.Unmarshal(raw.Addresses, &addrs); err == nil {
			u.Addresses = withIDs(addrs)
		}
	}
	if isArray(raw.Cards) {
		var cards []Card
		if err := json.Unmarshal(raw.Cards, &cards); err == nil {
			u.Cards = cards
		}
	}
	return nil
}

// IsGoogleAccount reports whether the account signs in through Google only.
// An explicit has_password wins; otherwise a Google-hosted avatar is the hint.
func (u User) IsGoogleAccount() bool {
	if u.HasPassword != nil {
		return *u.HasPassword == 0
	}
	return strings.Contains(u.ProfilePic, "googleusercontent.com")
}

type Address struct {
	ID        ID     `json:"id"`
	Label     string `json:"label"`
	Recipient string `json:"recipient"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = Address{
		ID:        pickID(m, "id", "address_id", "addr_id", "uuid", "_id"),
		Label:     pickText(m, "Address", "label", "tag", "title"),
		Recipient: pickText(m, "", "recipient", "name", "contact_name"),
		Street:    pickText(m, "", "street", "line1", "address1"),
		City:      pickText(m, "", "city"),
		State:     pickText(m, "", "state", "region"),
		Zip:       pickText(m, "", "zip", "postal_code", "pincode", "pin"),
	}
	return nil
}

func withIDs(addrs []Address) []Address {
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		if !a.ID.IsZero() {
			out = append(out, a)
		}
	}
	return out
}

type Card struct {
	ID        ID     `json:"id"`
	Brand     string `json:"brand,omitempty"`
	Holder    string `json:"holder_name,omitempty"`
	Last4     Text   `json:"last4,omitempty"`
	ExpMonth  Number `json:"exp_month,omitempty"`
	ExpYear   Number `json:"exp_year,omitempty"`
	IsDefault Flag   `json:"is_default"`
}

type NewCard struct {
	Holder   string `json:"holder_name"`
	Number   string `json:"card_number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	Brand    string `json:"brand,omitempty"`
}

type Order struct {
	ID            ID          `json:"id"`
	Mode          string      `json:"mode"`
	Status        string      `json:"status,omitempty"`
	Items         []OrderItem `json:"items"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	ShippingSpeed string      `json:"shipping_speed,omitempty"`
	ShippingFee   *Number     `json:"shipping_fee,omitempty"`
	CODFee        *Number     `json:"cod_fee,omitempty"`
	DeliveryETA   string      `json:"delivery_eta,omitempty"`
	CreatedAt     string      `json:"created_at,omitempty"`
	RentalEnd     string      `json:"rental_end,omitempty"`
	GiftEmail     string      `json:"gift_email,omitempty"`
	UserName      string      `json:"user_name,omitempty"`
	UserEmail     string      `json:"user_email,omitempty"`
}

type OrderItem struct {
	BookID   ID     `json:"book_id"`
	Title    string `json:"title,omitempty"`
	Quantity Number `json:"quantity"`
	Price    Number `json:"price"`
}

type OrderLine struct {
	BookID   ID  `json:"book_id"`
	Quantity int `json:"quantity"`
}

// OrderRequest is the body of POST /orders. Nil pointers are sent as null.
type OrderRequest struct {
	Mode              string      `json:"mode"`
	Items             []OrderLine `json:"items"`
	ShippingAddressID *string     `json:"shipping_address_id"`
	ShippingSpeed     *string     `json:"shipping_speed"`
	PaymentMethod     string      `json:"payment_method"`
	Notes             *string     `json:"notes"`
	RentalDuration    *int        `json:"rental_duration"`
	GiftEmail         *string     `json:"gift_email"`
	ShippingFee       float64     `json:"shipping_fee"`
	CODFee            float64     `json:"cod_fee"`
	DeliveryETA       *string     `json:"delivery_eta"`
}

type Library struct {
	Owned  []LibraryEntry `json:"owned"`
	Rented []LibraryEntry `json:"rented"`
}

type LibraryEntry struct {
	Book        Book   `json:"book"`
	PurchasedAt string `json:"purchased_at,omitempty"`
	RentalEnd   string `json:"rental_end,omitempty"`
}

type Gift struct {
	ID        ID     `json:"id"`
	BookID    ID     `json:"book_id"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Sender    string `json:"sender_email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	ReadAt    string `json:"read_at,omitempty"`
}

// Claimed reports whether the gift has been added to the library.
func (g Gift) Claimed() bool { return strings.TrimSpace(g.ReadAt) != "" }

type WishlistItem struct {
	BookID   ID     `json:"book_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    Number `json:"price"`
	ImageURL string `json:"image_url"`
	AddedAt  string `json:"created_at,omitempty"`
}

func (w *WishlistItem) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var price Number
	if raw, ok := pick(m, "price"); ok {
		_ = json.Unmarshal(raw, &price)
	}
	*w = WishlistItem{
		BookID:   pickID(m, "book_id", "id"),
		Title:    pickText(m, "", "title"),
		Author:   pickText(m, "", "author"),
		Price:    price,
		ImageURL: pickText(m, "", "image_url", "cover"),
		AddedAt:  pickText(m, "", "created_at"),
	}
	return nil
}

type Review struct {
	ID        ID     `json:"id"`
	BookID    ID     `json:"book_id"`
	UserName  string `json:"user_name"`
	Rating    Number `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ReadingAccess struct {
	ReadingURL  string `json:"readingUrl"`
	ContentType string `json:"contentType"`
	AccessType  string `json:"accessType"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	PageCount   Number `json:"pageCount,omitempty"`
}

// Rental reports whether access is time limited.
func (r ReadingAccess) Rental() bool { return r.AccessType == "rental" }

type Health struct {
	Status    string `json:"status"`
	DB        Flag   `json:"db"`
	Timestamp string `json:"timestamp"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type ProfileUpdate struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profile_pic"`
}

// Result is the {message} acknowledgement most mutations answer with.
type Result struct {
	Message string `json:"message"`
}

type ClaimResult struct {
	Claimed int `json:"claimed"`
}

type ReadResult struct {
	MarkedRead int `json:"marked_read"`
}

type BookInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description"`
	Genre       string  `json:"genre,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	PageCount   int     `json:"page_count,omitempty"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
