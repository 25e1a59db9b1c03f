package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/service"
)

type DevHTTP struct {
	Svc     *service.CatalogService
	Enabled bool
}

// Guard hides every dev route outside the development environment.
func (h *DevHTTP) Guard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.Enabled {
			return echo.NewHTTPError(http.StatusForbidden, "Dev routes are disabled")
		}
		return next(c)
	}
}

func (h *DevHTTP) DeleteProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dev.delete_products")

	n, err := h.Svc.DeleteAllProducts(ctx)
	if err != nil {
		return fail(l, "dev_delete_products", err, "Failed to delete products")
	}

	l.Info("dev_delete_products_success", "deleted", n)
	return c.JSON(http.StatusOK, map[string]int64{"deletedCount": n})
}

func (h *DevHTTP) SeedProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dev.seed_products")

	if _, err := h.Svc.SeedForce(ctx); err != nil {
		return fail(l, "dev_seed_products", err, "Failed to seed products")
	}
	products, err := h.Svc.AllProducts(ctx)
	if err != nil {
		return fail(l, "dev_seed_products", err, "Failed to seed products")
	}

	l.Info("dev_seed_products_success", "count", len(products))
	return c.JSON(http.StatusCreated, map[string]any{
		"count":    len(products),
		"products": products,
	})
}
