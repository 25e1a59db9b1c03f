package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopping_app/internal/events"
	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
	"github.com/Skotchmaster/shopping_app/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo    *repo.GormRepo
	pub     *testutil.Publisher
	index   *testutil.Index
	cache   *testutil.Cache
	users   *UserService
	catalog *CatalogService
	cart    *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := repo.New(testutil.InitTestDB(t))
	pub := &testutil.Publisher{}
	idx := testutil.NewIndex()
	c := testutil.NewCache()
	return &fixture{
		repo:    r,
		pub:     pub,
		index:   idx,
		cache:   c,
		users:   &UserService{Repo: r, Events: pub},
		catalog: &CatalogService{Repo: r, Cache: c, Index: idx, Events: pub},
		cart:    &CartService{Repo: r, Events: pub},
	}
}

func (f *fixture) product(t *testing.T, name string) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), ProductInput{
		Name:     ptr(name),
		Price:    ptr(10.0),
		ImageURL: ptr("https://example.com/" + name + ".png"),
	})
	require.NoError(t, err)
	return p
}

func TestUserService_SignUpAndLogIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.SignUp(ctx, " Ann Lee ", "Ann@Example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", u.FullName)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = f.users.SignUp(ctx, "Ann", "ann@example.com", "other")
	require.ErrorIs(t, err, ErrConflict)

	got, err := f.users.LogIn(ctx, "ANN@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, wrongPw := f.users.LogIn(ctx, "ann@example.com", "nope")
	_, noUser := f.users.LogIn(ctx, "ghost@example.com", "s3cret")
	require.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())

	assert.Contains(t, f.pub.Topics(), events.TopicUsers)
}

func TestUserService_SignUpRequiresAllFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.SignUp(context.Background(), "", "a@example.com", "pw")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "All fields are required", err.Error())
}

func TestUserService_UpdateProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.users.SignUp(ctx, "A", "a@example.com", "pw")
	require.NoError(t, err)
	_, err = f.users.SignUp(ctx, "B", "b@example.com", "pw")
	require.NoError(t, err)

	_, err = f.users.UpdateProfile(ctx, a.ID, ProfileUpdate{Email: ptr("b@example.com")})
	require.ErrorIs(t, err, ErrConflict)

	updated, err := f.users.UpdateProfile(ctx, a.ID, ProfileUpdate{FullName: ptr("Alice"), Address: ptr("1 Main St")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FullName)
	assert.Equal(t, "1 Main St", updated.Address)
	assert.Equal(t, "a@example.com", updated.Email)

	require.ErrorIs(t, f.users.ChangePassword(ctx, a.ID, ""), ErrValidation)
	require.NoError(t, f.users.ChangePassword(ctx, a.ID, "new-pw"))

	_, err = f.users.LogIn(ctx, "a@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.LogIn(ctx, "a@example.com", "new-pw")
	require.NoError(t, err)

	_, err = f.users.Profile(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, ProductInput{Name: ptr("x"), Price: ptr(1.0)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.catalog.CreateProduct(ctx, ProductInput{Name: ptr("x"), Price: ptr(-1.0), ImageURL: ptr("x.png")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_CacheAndIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Hoodie")

	assert.Contains(t, f.index.Products, p.ID)

	_, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.Hits)

	updated, err := f.catalog.UpdateProduct(ctx, p.ID, ProductInput{Price: ptr(49.5)})
	require.NoError(t, err)
	assert.Equal(t, 49.5, updated.Price)
	assert.Equal(t, "Hoodie", updated.Name)
	assert.NotContains(t, f.cache.Items, p.ID)

	got, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 49.5, got.Price)

	items, meta, err := f.catalog.SearchProducts(ctx, "hood", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), meta.Total)

	_, err = f.catalog.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.NotContains(t, f.index.Products, p.ID)
	assert.NotContains(t, f.cache.Items, p.ID)

	_, err = f.catalog.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.catalog.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, f.pub.Topics(), events.TopicProducts)
}

func TestCatalogService_SearchFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	f.catalog.Index = nil
	ctx := context.Background()
	f.product(t, "Sneakers")

	items, _, err := f.catalog.SearchProducts(ctx, "SNEAK", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, _, err = f.catalog.SearchProducts(ctx, "  ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_Seed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.catalog.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, f.index.Products, 3)

	n, err = f.catalog.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	prods, err := f.catalog.SeedForce(ctx)
	require.NoError(t, err)
	assert.Len(t, prods, 3)
	assert.Len(t, f.index.Products, 3)

	items, meta, err := f.catalog.GetProducts(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(3), meta.Total)
	assert.True(t, meta.HasNext)
}

func TestCartService_AddMergesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee")
	userID := uuid.New()

	item, created, err := f.cart.AddToCart(ctx, userID, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(2), item.Quantity)

	item, created, err = f.cart.AddToCart(ctx, userID, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(5), item.Quantity)

	items, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint(5), items[0].Quantity)

	assert.Contains(t, f.pub.Topics(), events.TopicCart)
}

func TestCartService_AddBeyondLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Bulk")
	userID := uuid.New()

	_, _, err := f.cart.AddToCart(ctx, userID, p.ID, MaxQuantity)
	require.NoError(t, err)

	_, _, err = f.cart.AddToCart(ctx, userID, p.ID, 1)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "quantity is too large", err.Error())

	items, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint(MaxQuantity), items[0].Quantity)
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.cart.AddToCart(context.Background(), uuid.New(), uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())

	_, _, err = f.cart.AddToCart(context.Background(), uuid.New(), uuid.Nil, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	a := f.product(t, "A")
	b := f.product(t, "B")

	item, _, err := f.cart.AddToCart(ctx, userID, a.ID, 1)
	require.NoError(t, err)
	_, _, err = f.cart.AddToCart(ctx, userID, b.ID, 1)
	require.NoError(t, err)

	_, err = f.cart.UpdateCartItem(ctx, userID, item.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	updated, err := f.cart.UpdateCartItem(ctx, userID, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), updated.Quantity)

	_, err = f.cart.UpdateCartItem(ctx, uuid.New(), item.ID, 2)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.cart.RemoveCartItem(ctx, userID, item.ID))
	require.ErrorIs(t, f.cart.RemoveCartItem(ctx, userID, item.ID), ErrNotFound)

	n, err := f.cart.ClearCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Product not found", Message(notFound("Product not found"), "x"))
	assert.Equal(t, "fallback", Message(context.Canceled, "fallback"))
}
