package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/booknook/storefront/internal/admin"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/assistant"
	"github.com/booknook/storefront/internal/cart"
	"github.com/booknook/storefront/internal/catalog"
	"github.com/booknook/storefront/internal/checkout"
	"github.com/booknook/storefront/internal/db"
	"github.com/booknook/storefront/internal/library"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/payment"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/reader"
	"github.com/booknook/storefront/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "0b6c5a52-4b8e-4f7b-9a62-0d7f5f0a9a11"

// fakeBackend answers the REST routes the handlers reach in these tests.
func fakeBackend(t *testing.T) http.Handler {
	t.Helper()
	books := map[string]string{
		"b1": `{"id":"b1","title":"Dune","author":"Herbert","price":500,"stock":3}`,
		"b2": `{"id":"b2","title":"Gone","author":"Nobody","price":100,"stock":0}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok","db":true}`)
	})
	mux.HandleFunc("GET /api/books", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"books":[%s,%s],"page":1,"total":2}`, books["b1"], books["b2"])
	})
	mux.HandleFunc("GET /api/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, ok := books[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Book not found"}`)
			return
		}
		_, _ = io.WriteString(w, b)
	})
	mux.HandleFunc("GET /api/books/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok","user":{"id":1,"name":"Asha","email":"asha@mail.com"}}`)
	})
	mux.HandleFunc("POST /api/auth/google-login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["token"] != "google-ok" {
			_, _ = io.WriteString(w, `{"user":{"id":1,"name":"Asha"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok","user":{"id":1,"name":"Asha","email":"asha@mail.com"}}`)
	})
	mux.HandleFunc("GET /api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":1,"name":"Asha","email":"asha@mail.com","is_admin":false}`)
	})
	return mux
}

type testEnv struct {
	E    *echo.Echo
	Cart *cart.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	srv := httptest.NewServer(fakeBackend(t))
	t.Cleanup(srv.Close)
	client := api.New(srv.URL+"/api", api.WithTimeout(2*time.Second), api.WithRetryDelay(time.Millisecond))

	gdb, err := db.Open(ctx, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	carts := cart.NewService(gdb, nil)
	require.NoError(t, carts.Repo.Migrate(ctx))

	cookies := session.Cookies{}
	books := catalog.New(client, nil)
	profiles := profile.New(client)
	payments := payment.New(client, carts, nil)
	content, err := reader.NewContentProxy(srv.URL+"/api", authmw.TokenFrom)
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	Register(e, &Deps{
		Auth:      authmw.New(profiles, cookies),
		Backend:   client,
		Shell:     &ShellHTTP{Cookies: cookies},
		Store:     &StoreHTTP{Catalog: books, Backend: client},
		Cart:      &CartHTTP{Cart: carts, Catalog: books, Profiles: profiles, Payments: payments, Cookies: cookies},
		Account:   &AccountHTTP{Backend: client, Profiles: profiles, Cookies: cookies},
		Library:   &LibraryHTTP{Backend: client, Library: library.New(client, books)},
		Admin:     &AdminHTTP{Admin: admin.New(client, books, nil)},
		Reader:    &ReaderHTTP{Reader: reader.New(client), Content: content},
		Assistant: &AssistantHTTP{Assistant: assistant.New(client), Cookies: cookies},
	})
	return &testEnv{E: e, Cart: carts}
}

func (env *testEnv) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	req.Header.Set("HX-Request", "true")
	req.AddCookie(&http.Cookie{Name: session.SessionCookie, Value: testSession})
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if h := rec.Header().Get(headerTrigger); h != "" {
		require.NoError(t, json.Unmarshal([]byte(h), &out))
	}
	return out
}

func toastOf(t *testing.T, rec *httptest.ResponseRecorder) toast {
	t.Helper()
	raw, ok := triggers(t, rec)[eventShowToast]
	require.True(t, ok, "no toast in %q", rec.Header().Get(headerTrigger))
	var ts toast
	require.NoError(t, json.Unmarshal(raw, &ts))
	return ts
}

func setCookies(rec *httptest.ResponseRecorder) string {
	return strings.Join(rec.Header().Values("Set-Cookie"), "; ")
}

var loggedIn = &http.Cookie{Name: session.AccessCookie, Value: "tok"}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"ok","db":true}`, rec.Body.String())
}

func TestIndex_ServesShell(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="main"`)
	assert.Contains(t, setCookies(rec), session.SessionCookie+"=")

	rec = env.do(http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBooks_RendersGrid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/fragments/books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "Gone")
}

func TestBook_ReviewsDegrade(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/fragments/books/b1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Herbert")

	rec = env.do(http.MethodGet, "/fragments/books/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Book not found", toastOf(t, rec).Message)
}

func TestCart_AddAndBadge(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/cart/items", url.Values{"book_id": {"b1"}, "qty": {"2"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, triggers(t, rec), eventCartChanged)
	assert.Equal(t, toast{Type: "success", Message: "Added to cart"}, toastOf(t, rec))

	rec = env.do(http.MethodGet, "/fragments/cart/badge", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `>2</span>`)

	rec = env.do(http.MethodGet, "/fragments/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")
	assert.Contains(t, rec.Body.String(), "₹1,000.00")
}

func TestCart_AddRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantMsg    string
	}{
		{name: "out of stock", form: url.Values{"book_id": {"b2"}}, wantStatus: http.StatusBadRequest, wantMsg: "This book is out of stock"},
		{name: "missing id", form: url.Values{"book_id": {" "}}, wantStatus: http.StatusBadRequest, wantMsg: "Choose a book to add"},
		{name: "unknown book", form: url.Values{"book_id": {"zz"}}, wantStatus: http.StatusNotFound, wantMsg: "Book not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/cart/items", tc.form)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, toast{Type: "error", Message: tc.wantMsg}, toastOf(t, rec))
		})
	}

	n, err := env.Cart.Count(context.Background(), testSession)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCart_RemoveAndClear(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Cart.Add(ctx, testSession, "b1", 1)
	require.NoError(t, err)

	rec := env.do(http.MethodDelete, "/cart/items/b1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, triggers(t, rec), eventCartChanged)

	rec = env.do(http.MethodDelete, "/cart/items/b1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = env.Cart.Add(ctx, testSession, "b1", 1)
	require.NoError(t, err)
	rec = env.do(http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	n, err := env.Cart.Count(ctx, testSession)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCart_Decrement(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Cart.Add(ctx, testSession, "b1", 2)
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/cart/items/b1/decrement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, triggers(t, rec), eventCartChanged)
	n, err := env.Cart.Count(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec = env.do(http.MethodPost, "/cart/items/b1/decrement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cart is empty")
	n, err = env.Cart.Count(ctx, testSession)
	require.NoError(t, err)
	assert.Zero(t, n)

	rec = env.do(http.MethodPost, "/cart/items/b1/decrement", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutes_RequireLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, target := range []string{"/fragments/orders", "/fragments/library", "/fragments/profile"} {
		rec := env.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.Contains(t, triggers(t, rec), eventAuthRequired, target)
	}

	rec := env.do(http.MethodPost, "/checkout", url.Values{"mode": {"buy"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RejectCustomers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/fragments/admin/dashboard", nil, loggedIn)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin only", toastOf(t, rec).Message)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/login", url.Values{"email": {"asha@mail.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(headerRefresh))
	assert.Contains(t, setCookies(rec), session.AccessCookie+"=tok")
	assert.Equal(t, "Welcome, Asha", toastOf(t, rec).Message)

	rec = env.do(http.MethodPost, "/auth/login", url.Values{"email": {"asha@mail.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", toastOf(t, rec).Message)
	assert.Empty(t, setCookies(rec))

	rec = env.do(http.MethodPost, "/auth/login", url.Values{"email": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password are required", toastOf(t, rec).Message)
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/google", url.Values{"credential": {"google-ok"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, setCookies(rec), session.AccessCookie+"=tok")
	assert.Equal(t, "Welcome, Asha", toastOf(t, rec).Message)

	rec = env.do(http.MethodPost, "/auth/google", url.Values{"credential": {"no-token"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Google sign-in failed, no session was returned", toastOf(t, rec).Message)
	assert.Empty(t, setCookies(rec))
	assert.Empty(t, rec.Header().Get(headerRefresh))

	rec = env.do(http.MethodPost, "/auth/google", url.Values{"credential": {" "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminLogin_DeniesCustomer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/admin-login", url.Values{"email": {"asha@mail.com"}, "password": {"secret"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not an admin account", toastOf(t, rec).Message)
	assert.NotContains(t, setCookies(rec), session.AccessCookie+"=tok")
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/checkout", url.Values{"mode": {"buy"}, "address_id": {"a1"}}, loggedIn)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Your cart is empty", toastOf(t, rec).Message)
}

func TestAddReview_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/books/b1/reviews", url.Values{"rating": {"9"}, "comment": {"great"}}, loggedIn)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Choose a rating from 1 to 5", toastOf(t, rec).Message)

	rec = env.do(http.MethodPost, "/books/b1/reviews", url.Values{"rating": {"4"}, "comment": {"  "}}, loggedIn)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please write a comment", toastOf(t, rec).Message)
}

func TestErrorHandler_JSON(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ErrorHandler(echo.NewHTTPError(http.StatusConflict, "taken"), e.NewContext(req, rec))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"taken"}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get(headerTrigger))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "checkout validation", err: fmt.Errorf("%w: Select or add an address", checkout.ErrValidation), wantStatus: 400, wantMsg: "Select or add an address"},
		{name: "bad input", err: invalid("Choose a book"), wantStatus: 400, wantMsg: "Choose a book"},
		{name: "cart validation", err: fmt.Errorf("session id must not be empty: %w", cart.ErrValidation), wantStatus: 400, wantMsg: "Invalid cart request"},
		{name: "cart miss", err: cart.ErrNotFound, wantStatus: 404, wantMsg: "Item is not in your cart"},
		{name: "already claimed", err: library.ErrNothingClaimed, wantStatus: 409, wantMsg: "Gift is already in your library"},
		{name: "unreachable", err: &api.Error{Err: errors.New("dial tcp")}, wantStatus: 502, wantMsg: "Server is unreachable, please try again"},
		{name: "unauthorized", err: &api.Error{Status: 401, Message: "jwt expired"}, wantStatus: 401, wantMsg: "Please login again"},
		{name: "server error", err: &api.Error{Status: 503}, wantStatus: 502, wantMsg: "Server error, please try again later"},
		{name: "backend message", err: &api.Error{Status: 404, Message: "Book not found"}, wantStatus: 404, wantMsg: "Book not found"},
		{name: "backend status only", err: &api.Error{Status: 409}, wantStatus: 409, wantMsg: "Conflict"},
		{name: "unknown", err: errors.New("boom"), wantStatus: 500, wantMsg: "Something went wrong"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status, msg := classify(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMsg, msg)
		})
	}
}

func TestTrigger_MergesEvents(t *testing.T) {
	t.Parallel()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	trigger(c, eventCartChanged, true)
	success(c, "Saved")
	notify(c, "info", "")

	got := triggers(t, rec)
	assert.Len(t, got, 2)
	assert.JSONEq(t, `true`, string(got[eventCartChanged]))
	assert.JSONEq(t, `{"type":"success","message":"Saved"}`, string(got[eventShowToast]))
}
