package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shopping_app/internal/middleware/auth"
	"github.com/Skotchmaster/shopping_app/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shopping_app/internal/middleware/logging"
	"github.com/Skotchmaster/shopping_app/internal/models"
)

type Deps struct {
	Users   *UserHTTP
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Dev     *DevHTTP
	Gate    *auth.Gate

	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

type Options struct {
	Logger       *slog.Logger
	CORSOrigins  []string
	CSRF         bool
	CookieSecure bool
}

// New builds the echo server with the global middleware stack and every route registered.
func New(d *Deps, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID, "X-CSRF-Token"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))
	if opts.CSRF {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:       opts.CookieSecure,
			SkipPrefixes: []string{"/health"},
		}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	g := d.Gate
	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/signup", d.Users.SignUp, g.RequireGuest)
	users.POST("/login", d.Users.LogIn, g.RequireGuest)
	users.POST("/logout", d.Users.LogOut, g.Authenticate)
	users.GET("/profile", d.Users.Profile, g.Chain("")...)
	users.PUT("/update-profile", d.Users.UpdateProfile, g.Chain("")...)
	users.PUT("/change-password", d.Users.ChangePassword, g.Chain("")...)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, g.Chain(models.RoleAdmin)...)
	products.PUT("/:id", d.Catalog.UpdateProduct, g.Chain(models.RoleAdmin)...)
	products.DELETE("/:id", d.Catalog.DeleteProduct, g.Chain(models.RoleAdmin)...)

	admin := api.Group("/admin", g.Chain(models.RoleAdmin)...)
	admin.GET("/products", d.Catalog.AdminProducts)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PUT("/products/:id", d.Catalog.UpdateProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)

	cart := api.Group("/cart", g.Chain("")...)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.PATCH("/:id", d.Cart.UpdateCartItem)
	cart.DELETE("/:id", d.Cart.DeleteCartItem)
	cart.DELETE("", d.Cart.ClearCart)

	dev := api.Group("/dev", d.Dev.Guard)
	dev.DELETE("/products", d.Dev.DeleteProducts)
	dev.POST("/seed-products", d.Dev.SeedProducts)
}
