package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageHandler(t *testing.T, total int, seen *[]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*seen = append(*seen, r.URL.RawQuery)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var books []map[string]any
		for i := (page - 1) * limit; i < total && i < page*limit; i++ {
			books = append(books, map[string]any{"id": i + 1, "title": fmt.Sprintf("Book %d", i+1), "price": 100})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"books": books, "page": page, "total": total})
	}
}

func TestIterateBooks_StopsOnShortPage(t *testing.T) {
	t.Parallel()

	var seen []string
	c := newTestClient(t, pageHandler(t, 5, &seen))

	var got int
	for books, err := range c.IterateBooks(context.Background(), IterateOptions{PageSize: 2}) {
		require.NoError(t, err)
		got += len(books)
	}
	assert.Equal(t, 5, got)
	assert.Len(t, seen, 3)
}

func TestIterateBooks_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	var seen []string
	c := newTestClient(t, pageHandler(t, 4, &seen))

	var pages int
	for _, err := range c.IterateBooks(context.Background(), IterateOptions{PageSize: 2}) {
		require.NoError(t, err)
		pages++
	}
	assert.Equal(t, 2, pages)
	assert.Len(t, seen, 3)
}

func TestIterateBooks_MaxPagesAndQuery(t *testing.T) {
	t.Parallel()

	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `[{"id":1},{"id":2}]`)
	}))

	var pages int
	for _, err := range c.IterateBooks(context.Background(), IterateOptions{PageSize: 2, MaxPages: 3, Query: "go lang"}) {
		require.NoError(t, err)
		pages++
	}
	assert.Equal(t, 3, pages)
	require.Len(t, paths, 3)
	assert.Equal(t, "/api/books/search?go lang", paths[0])
}

func TestIterateBooks_YieldsError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	var errs int
	for books, err := range c.IterateBooks(context.Background(), IterateOptions{}) {
		assert.Nil(t, books)
		require.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}

func TestDevFallback_OnNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithDevFallback(true), WithRetryDelay(time.Millisecond))
	ctx := context.Background()

	page, err := c.Books(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Books, 3)

	found, err := c.SearchBooks(ctx, "CLEAN", 1, 20)
	require.NoError(t, err)
	require.Len(t, found.Books, 1)
	assert.Equal(t, "Clean Code", found.Books[0].Title)

	b, err := c.Book(ctx, "b3")
	require.NoError(t, err)
	assert.Equal(t, "Atomic Habits", b.Title)

	_, err = c.Book(ctx, "nope")
	assert.True(t, IsNotFound(err))

	u, err := c.Profile(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Demo User", u.Name)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	orders, err := c.Orders(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestDevFallback_NotUsedForHTTPErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}), WithDevFallback(true))

	_, err := c.Books(context.Background(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
}

func TestUploadProfilePicture_FallsBackOn404(t *testing.T) {
	t.Parallel()

	var hits []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		if r.URL.Path == "/api/users/profile/picture" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(body))
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "Asha", r.FormValue("name"))
		_, _ = io.WriteString(w, `{"user":{"id":1,"name":"Asha","profile_pic":"http://cdn/me.png"}}`)
	}))

	u, err := c.UploadProfilePicture(context.Background(), "tok",
		File{Name: "me.png", ContentType: "image/png", Body: strings.NewReader("PNGDATA")},
		map[string]string{"name": "Asha"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "http://cdn/me.png", u.ProfilePic)
	assert.Equal(t, []string{"/api/users/profile/picture", "/api/users/profile/pic"}, hits)
}

func TestUpload_NotRetried(t *testing.T) {
	t.Parallel()

	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}), WithRetries(3))

	err := c.UploadSample(context.Background(), "tok", "b1", File{Name: "s.pdf", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestPayments_UnsuccessfulBodyIsError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in PaymentOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "INR", in.Currency)
		_, _ = io.WriteString(w, `{"success":false,"message":"gateway down"}`)
	}))

	_, err := c.CreatePaymentOrder(context.Background(), "tok", PaymentOrderRequest{Amount: 100, OrderID: "9"})
	require.Error(t, err)
	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "gateway down", ae.Message)
}

func TestPlaceOrder_Envelope(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Nil(t, in["gift_email"])
		assert.Equal(t, "buy", in["mode"])
		_, _ = io.WriteString(w, `{"message":"ok","order":{"id":42,"mode":"buy"}}`)
	}))

	addr := "a1"
	o, err := c.PlaceOrder(context.Background(), "tok", OrderRequest{Mode: "buy", ShippingAddressID: &addr, Items: []OrderLine{{BookID: "b1", Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, ID("42"), o.ID)
}
