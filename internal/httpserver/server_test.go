package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopping_app/internal/middleware/auth"
	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
	"github.com/Skotchmaster/shopping_app/internal/service"
	"github.com/Skotchmaster/shopping_app/internal/session"
	"github.com/Skotchmaster/shopping_app/internal/testutil"
)

type testServer struct {
	e        *echo.Echo
	repo     *repo.GormRepo
	sessions *session.Manager
	pub      *testutil.Publisher
}

func newTestServer(t *testing.T, devRoutes bool) *testServer {
	t.Helper()

	r := repo.New(testutil.InitTestDB(t))
	pub := &testutil.Publisher{}
	sessions := session.NewManager([]byte("test-session-secret"), time.Hour, false)
	catalog := &service.CatalogService{Repo: r, Events: pub}

	deps := &Deps{
		Users:   &UserHTTP{Svc: &service.UserService{Repo: r, Events: pub}, Sessions: sessions},
		Catalog: &CatalogHTTP{Svc: catalog},
		Cart:    &CartHTTP{Svc: &service.CartService{Repo: r, Events: pub}},
		Dev:     &DevHTTP{Svc: catalog, Enabled: devRoutes},
		Gate:    &auth.Gate{Sessions: sessions, Users: r},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return &testServer{
		e:        New(deps, Options{Logger: logger, CORSOrigins: []string{"http://localhost:5173"}}),
		repo:     r,
		sessions: sessions,
		pub:      pub,
	}
}

// user stores a user with the given role and returns a session cookie for it.
func (s *testServer) user(t *testing.T, role string) (*models.User, *http.Cookie) {
	t.Helper()
	u := models.User{
		FullName:     "Test " + role,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "unused",
		Role:         role,
	}
	require.NoError(t, s.repo.CreateUser(context.Background(), &u))

	token, exp, err := s.sessions.Sign(u.ID)
	require.NoError(t, err)
	return &u, session.CreateCookie(session.DefaultCookieName, token, "/", exp, false)
}

func (s *testServer) product(t *testing.T, name string) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: 10, ImageURL: "https://example.com/" + name + ".png"}
	require.NoError(t, s.repo.CreateProduct(context.Background(), &p))
	return &p
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.DefaultCookieName {
			return ck
		}
	}
	return nil
}

func TestAddToCart_CreateThenMerge(t *testing.T) {
	s := newTestServer(t, false)
	_, ck := s.user(t, models.RoleUser)
	p := s.product(t, "tee")

	rec := s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String(), "quantity": 2}, ck)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.CartItem](t, rec)
	assert.Equal(t, uint(2), created.Quantity)

	rec = s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String(), "quantity": 3}, ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	merged := decode[models.CartItem](t, rec)
	assert.Equal(t, created.ID, merged.ID)
	assert.Equal(t, uint(5), merged.Quantity)

	rec = s.do(t, http.MethodGet, "/api/cart", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.CartItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, uint(5), items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "tee", items[0].Product.Name)
}

func TestAddToCart_DefaultsAndCoercion(t *testing.T) {
	s := newTestServer(t, false)
	_, ck := s.user(t, models.RoleUser)
	p := s.product(t, "mug")

	rec := s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String()}, ck)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(1), decode[models.CartItem](t, rec).Quantity)

	rec = s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String(), "quantity": "2"}, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(3), decode[models.CartItem](t, rec).Quantity)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	s := newTestServer(t, false)
	_, ck := s.user(t, models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": uuid.NewString(), "quantity": 1}, ck)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/cart", map[string]any{"quantity": 1}, ck)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "productId is required", message(t, rec))

	rec = s.do(t, http.MethodGet, "/api/cart", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.CartItem](t, rec))
}

func TestUpdateCartItem_RejectsInvalidQuantity(t *testing.T) {
	s := newTestServer(t, false)
	_, ck := s.user(t, models.RoleUser)
	p := s.product(t, "cap")

	rec := s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String(), "quantity": 2}, ck)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode[models.CartItem](t, rec)
	path := "/api/cart/" + item.ID.String()

	for _, body := range []string{`{"quantity":0}`, `{"quantity":"abc"}`, `{"quantity":-3}`, `{}`} {
		rec = s.do(t, http.MethodPatch, path, body, ck)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = s.do(t, http.MethodGet, "/api/cart", nil, ck)
	items := decode[[]models.CartItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, uint(2), items[0].Quantity)

	rec = s.do(t, http.MethodPatch, path, `{"quantity":4}`, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(4), decode[models.CartItem](t, rec).Quantity)
}

func TestCart_OwnedBySessionUser(t *testing.T) {
	s := newTestServer(t, false)
	_, alice := s.user(t, models.RoleUser)
	_, bob := s.user(t, models.RoleUser)
	p := s.product(t, "scarf")

	rec := s.do(t, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID.String()}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode[models.CartItem](t, rec)

	rec = s.do(t, http.MethodGet, "/api/cart", nil, bob)
	assert.Empty(t, decode[[]models.CartItem](t, rec))

	rec = s.do(t, http.MethodDelete, "/api/cart/"+item.ID.String(), nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/cart/"+item.ID.String(), nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted", message(t, rec))

	rec = s.do(t, http.MethodDelete, "/api/cart", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCart_RequiresSession(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	garbage := &http.Cookie{Name: session.DefaultCookieName, Value: "not-a-token"}
	rec = s.do(t, http.MethodGet, "/api/cart", nil, garbage)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_NoEnumeration(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"fullname": "Ann", "email": "ann@example.com", "password": "right-pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	wrongPw := s.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "ann@example.com", "password": "wrong"})
	noUser := s.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "nobody@example.com", "password": "right-pw"})

	require.Equal(t, http.StatusBadRequest, wrongPw.Code)
	require.Equal(t, http.StatusBadRequest, noUser.Code)
	assert.Equal(t, "Invalid email or password", message(t, wrongPw))
	assert.Equal(t, wrongPw.Body.String(), noUser.Body.String())
	assert.Nil(t, sessionCookie(wrongPw))

	rec = s.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "ann@example.com", "password": "right-pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, sessionCookie(rec))
}

func TestSignUp_SessionAndProfile(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"fullname": "Bo", "email": "bo@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.Equal(t, "bo@example.com", body["email"])
	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	rec = s.do(t, http.MethodGet, "/api/users/profile", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "bo@example.com")

	rec = s.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "bo@example.com", "password": "pw"}, ck)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Already logged in", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/users/signup", map[string]string{"fullname": "X", "email": "bo@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/users/signup", map[string]string{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/users/logout", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	s := newTestServer(t, false)
	_, ck := s.user(t, models.RoleUser)

	rec := s.do(t, http.MethodPut, "/api/users/update-profile", map[string]string{"fullname": "Renamed", "address": "Main St 1"}, ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Renamed")

	rec = s.do(t, http.MethodPut, "/api/users/change-password", map[string]string{}, ck)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "New password is required", message(t, rec))

	rec = s.do(t, http.MethodPut, "/api/users/change-password", map[string]string{"password": "fresh"}, ck)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDelete_Gate(t *testing.T) {
	s := newTestServer(t, false)
	_, userCk := s.user(t, models.RoleUser)
	_, adminCk := s.user(t, models.RoleAdmin)
	p := s.product(t, "hoodie")
	path := "/api/products/" + p.ID.String()

	rec := s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil, userCk)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil, adminCk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hoodie", decode[models.Product](t, rec).Name)

	rec = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, path, nil, adminCk)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminProducts_CRUD(t *testing.T) {
	s := newTestServer(t, false)
	_, adminCk := s.user(t, models.RoleAdmin)
	_, userCk := s.user(t, models.RoleUser)

	rec := s.do(t, http.MethodGet, "/api/admin/products", nil, userCk)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/products", map[string]any{"name": "Cap"}, adminCk)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/products", map[string]any{
		"name": "Cap", "price": 15.5, "imageUrl": "https://example.com/cap.png", "category": "hats",
	}, adminCk)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)

	rec = s.do(t, http.MethodPut, "/api/admin/products/"+created.ID.String(), map[string]any{"price": 12}, adminCk)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Product](t, rec)
	assert.Equal(t, 12.0, updated.Price)
	assert.Equal(t, "Cap", updated.Name)

	rec = s.do(t, http.MethodGet, "/api/admin/products", nil, adminCk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = s.do(t, http.MethodPut, "/api/admin/products/not-a-uuid", map[string]any{"price": 1}, adminCk)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_PublicReads(t *testing.T) {
	s := newTestServer(t, false)
	for _, name := range []string{"T-shirt", "Hoodie", "Sneakers"} {
		s.product(t, name)
	}

	rec := s.do(t, http.MethodGet, "/api/products?page=1&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	rec = s.do(t, http.MethodGet, "/api/products/search?q=hood", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hoodie")

	rec = s.do(t, http.MethodGet, "/api/products/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevRoutes(t *testing.T) {
	disabled := newTestServer(t, false)
	rec := disabled.do(t, http.MethodPost, "/api/dev/seed-products", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Dev routes are disabled", message(t, rec))

	s := newTestServer(t, true)
	s.product(t, "old")

	rec = s.do(t, http.MethodPost, "/api/dev/seed-products", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), body["count"])

	rec = s.do(t, http.MethodDelete, "/api/dev/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode[map[string]any](t, rec)["deletedCount"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestCORS_AllowsCredentials(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
