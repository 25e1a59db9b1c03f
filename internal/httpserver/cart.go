package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	items, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart", err, "Failed to fetch cart")
	}
	return c.JSON(http.StatusOK, items)
}

// AddToCart answers 201 when a new line is created and 200 when the quantity
// was merged into an existing one.
func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID string `json:"productId"`
		Quantity  any    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart", "invalid body", err)
	}

	if strings.TrimSpace(req.ProductID) == "" {
		return badRequest(l, "add_to_cart", "productId is required", nil)
	}
	productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
	if err != nil {
		return badRequest(l, "add_to_cart", "invalid productId", err)
	}
	qty, err := service.AddQuantity(req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart", err, "Failed to add to cart")
	}

	item, created, err := h.Svc.AddToCart(ctx, userID, productID, qty)
	if err != nil {
		return fail(l, "add_to_cart", err, "Failed to add to cart")
	}

	l.Info("add_to_cart_success", "product_id", productID.String(), "quantity", item.Quantity, "created", created)
	if created {
		return c.JSON(http.StatusCreated, item)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemID, err := parseID(c)
	if err != nil {
		return badRequest(l, "update_cart_item", "invalid cart item id", err)
	}

	var req struct {
		Quantity any `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_item", "invalid body", err)
	}
	qty, err := service.SetQuantity(req.Quantity)
	if err != nil {
		return fail(l, "update_cart_item", err, "Failed to update")
	}

	item, err := h.Svc.UpdateCartItem(ctx, userID, itemID, qty)
	if err != nil {
		return fail(l, "update_cart_item", err, "Failed to update")
	}

	l.Info("update_cart_item_success", "item_id", itemID.String(), "quantity", qty)
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) DeleteCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemID, err := parseID(c)
	if err != nil {
		return badRequest(l, "delete_cart_item", "invalid cart item id", err)
	}

	if err := h.Svc.RemoveCartItem(ctx, userID, itemID); err != nil {
		return fail(l, "delete_cart_item", err, "Failed to delete")
	}

	l.Info("delete_cart_item_success", "item_id", itemID.String())
	return c.JSON(http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	n, err := h.Svc.ClearCart(ctx, userID)
	if err != nil {
		return fail(l, "clear_cart", err, "Failed to clear cart")
	}

	l.Info("clear_cart_success", "removed", n)
	return c.JSON(http.StatusOK, map[string]any{"message": "Cart cleared", "removed": n})
}
