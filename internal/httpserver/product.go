package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/service"
	"github.com/Skotchmaster/shopping_app/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	items, meta, err := h.Svc.GetProducts(ctx, page, size)
	if err != nil {
		return fail(l, "get_products", err, "Failed to fetch products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": meta,
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	items, meta, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_products", err, "Failed to search products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": meta,
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_product", "invalid product id", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product", err, "Failed to fetch product")
	}
	return c.JSON(http.StatusOK, product)
}

// AdminProducts lists the whole catalog without pagination.
func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_products")

	items, err := h.Svc.AllProducts(ctx)
	if err != nil {
		return fail(l, "admin_get_products", err, "Failed to get all admin product.")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product", err, "Failed to create product")
	}

	l.Info("create_product_success", "product_id", product.ID.String())
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "update_product", "invalid product id", err)
	}

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product", "invalid body", err)
	}

	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "update_product", err, "Failed to update product.")
	}

	l.Info("update_product_success", "product_id", id.String())
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "delete_product", "invalid product id", err)
	}

	product, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		return fail(l, "delete_product", err, "Failed to delete product.")
	}

	l.Info("delete_product_success", "product_id", id.String())
	return c.JSON(http.StatusOK, product)
}
