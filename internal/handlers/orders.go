package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/graph"
	"github.com/lucverne/bistro-api/internal/middleware"
	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/services"
	"github.com/lucverne/bistro-api/internal/utils"
	"gorm.io/gorm"
)

// OrderHandler handles order placement and order management routes
type OrderHandler struct {
	DB       *gorm.DB
	Resolver *geoip.Resolver
	Graph    *graph.Store // nil when the graph store is disabled
}

// CreateOrder handles POST /api/orders
// @Summary Place an order
// @Description Validate the requested items, record the request's resolved
// @Description location, and create the order. The identity graph is updated
// @Description after commit; graph failures never fail the order.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrderInput true "Order payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, err := requestUser(c, "orders.create")
	if user == nil {
		return err
	}

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "orders.create")
	}

	ip := middleware.RequestIP(c)
	res := h.Resolver.Resolve(c.UserContext(), ip)

	order, location, err := services.CreateOrder(h.DB, user, input, res, ip)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyOrder),
			errors.Is(err, services.ErrItemUnavailable),
			errors.Is(err, services.ErrInvalidQuantity):
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "orders.create")
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFoundResponse(c, err.Error())
		default:
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "orders.create")
		}
	}

	h.recordGraph(user, order, location)

	return utils.SuccessResponse(c, fiber.Map{
		"message":           "Order placed",
		"order":             order,
		"location_tracking": services.TrackingFor(location, user.City),
	}, fiber.StatusCreated)
}

// recordGraph projects a committed order into the identity graph. Runs
// detached from the request: the order is already durable, and a graph
// outage must not surface to the customer.
func (h *OrderHandler) recordGraph(user *models.User, order *models.Order, location *models.UserLocation) {
	if h.Graph == nil {
		return
	}

	ev := graph.OrderEvent{
		Username:       user.Username,
		Email:          user.Email,
		RegisteredCity: user.City,
		IPAddress:      location.IPAddress,
		DetectedCity:   location.City,
		OrderID:        order.ID,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Graph.RecordOrder(ctx, ev); err != nil {
			log.Printf("orders: graph record for order %d failed: %v", order.ID, err)
		}
	}()
}

// ListOrders handles GET /api/orders
// @Summary List orders
// @Description Admins see every order; everyone else sees their own.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Order
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, err := requestUser(c, "orders.list")
	if user == nil {
		return err
	}

	orders, err := services.ListOrders(h.DB, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "orders.list")
	}

	return utils.SuccessResponse(c, orders, fiber.StatusOK)
}

// GetOrder handles GET /api/orders/:id
// @Summary Get one order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, err := requestUser(c, "orders.get")
	if user == nil {
		return err
	}

	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid order id", fiber.StatusBadRequest, "orders.get")
	}

	order, err := services.GetOrder(h.DB, user, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFoundResponse(c, fmt.Sprintf("Order %d not found", id))
		case errors.Is(err, services.ErrForbidden):
			return utils.ErrorResponse(c, "Access denied", fiber.StatusForbidden, "orders.get")
		default:
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "orders.get")
		}
	}

	response := fiber.Map{"order": order}

	// Attach the location recorded with the most recent order action, when
	// one exists for the order's owner
	if loc, err := services.LatestOrderLocation(h.DB, order.UserID); err == nil {
		registered := user.City
		if order.User != nil {
			registered = order.User.City
		}
		response["location_tracking"] = services.TrackingFor(loc, registered)
	}

	return utils.SuccessResponse(c, response, fiber.StatusOK)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles PUT /api/orders/:id/status
// @Summary Update an order's status
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body statusRequest true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid order id", fiber.StatusBadRequest, "orders.status")
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "orders.status")
	}

	order, err := services.UpdateOrderStatus(h.DB, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return utils.ErrorResponse(c,
				fmt.Sprintf("Invalid status %q (valid: %v)", req.Status, models.ValidOrderStatuses),
				fiber.StatusBadRequest, "orders.status")
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFoundResponse(c, fmt.Sprintf("Order %d not found", id))
		default:
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "orders.status")
		}
	}

	return utils.SuccessResponse(c, order, fiber.StatusOK)
}

// CancelOrder handles POST /api/orders/:id/cancel
// @Summary Cancel an order
// @Description Customers may cancel their own pending orders; admins any order.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	user, err := requestUser(c, "orders.cancel")
	if user == nil {
		return err
	}

	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid order id", fiber.StatusBadRequest, "orders.cancel")
	}

	order, err := services.CancelOrder(h.DB, user, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return utils.NotFoundResponse(c, fmt.Sprintf("Order %d not found", id))
		case errors.Is(err, services.ErrForbidden):
			return utils.ErrorResponse(c, "Access denied", fiber.StatusForbidden, "orders.cancel")
		case errors.Is(err, services.ErrNotCancellable):
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "orders.cancel")
		default:
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "orders.cancel")
		}
	}

	return utils.SuccessResponse(c, order, fiber.StatusOK)
}
