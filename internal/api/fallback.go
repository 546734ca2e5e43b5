package api

import (
	"strings"
	"time"
)

func intPtr(v int) *int { return &v }

var demoCatalog = []Book{
	{
		ID: "b1", Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Price: 599, Stock: intPtr(8),
		Description: "Timeless tips for pragmatic software development.",
		ImageURL:    "https://images.unsplash.com/photo-1524995997946-a1c2e315a42f?q=80&w=640&auto=format&fit=crop",
	},
	{
		ID: "b2", Title: "Clean Code", Author: "Robert C. Martin", Price: 549, Stock: intPtr(12),
		Description: "Principles of writing clean, maintainable software.",
		ImageURL:    "https://images.unsplash.com/photo-1516979187457-637abb4f9353?q=80&w=640&auto=format&fit=crop",
	},
	{
		ID: "b3", Title: "Atomic Habits", Author: "James Clear", Price: 399, Stock: intPtr(20),
		Description: "A framework for improving every day.",
		ImageURL:    "https://images.unsplash.com/photo-1544937950-fa07a98d237f?q=80&w=640&auto=format&fit=crop",
	},
}

// offline reports whether err should be answered from the demo data.
func (c *Client) offline(err error) bool {
	return c.devFallback && IsNetwork(err)
}

func fallbackHealth() Health {
	return Health{Status: "ok", DB: false, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func fallbackCatalog() BooksPage {
	books := make([]Book, len(demoCatalog))
	copy(books, demoCatalog)
	return BooksPage{Books: books, Page: 1, Total: len(books)}
}

func fallbackSearch(query string) BooksPage {
	needle := strings.ToLower(query)
	books := []Book{}
	for _, b := range demoCatalog {
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle) {
			books = append(books, b)
		}
	}
	return BooksPage{Books: books, Page: 1, Total: len(books)}
}

func fallbackBook(id string) (*Book, error) {
	for _, b := range demoCatalog {
		if string(b.ID) == id {
			found := b
			return &found, nil
		}
	}
	return nil, &Error{Status: 404, Message: "Book not found (offline fallback)"}
}

func fallbackUser() *User {
	return &User{
		ID:        "u1",
		Name:      "Demo User",
		Email:     "demo@example.com",
		Addresses: []Address{},
		Cards:     []Card{},
	}
}
