package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/services"
	"github.com/lucverne/bistro-api/internal/utils"
	"gorm.io/gorm"
)

// MenuHandler handles the public menu and admin menu management routes
type MenuHandler struct {
	DB *gorm.DB
}

// ListMenu handles GET /api/menu
// @Summary List menu items
// @Description List menu items, optionally filtered by category. By default
// @Description only available items are returned; all=true includes the rest.
// @Tags Menu
// @Produce json
// @Param category query string false "Category filter"
// @Param all query bool false "Include unavailable items"
// @Success 200 {array} models.MenuItem
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /menu [get]
func (h *MenuHandler) ListMenu(c *fiber.Ctx) error {
	category := c.Query("category")
	availableOnly := !c.QueryBool("all", false)

	items, err := services.ListMenu(h.DB, category, availableOnly)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "menu.list")
	}

	return utils.SuccessResponse(c, items, fiber.StatusOK)
}

// GetMenuItem handles GET /api/menu/:id
// @Summary Get one menu item
// @Tags Menu
// @Produce json
// @Param id path int true "Menu item ID"
// @Success 200 {object} models.MenuItem
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /menu/{id} [get]
func (h *MenuHandler) GetMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid menu item id", fiber.StatusBadRequest, "menu.get")
	}

	item, err := services.GetMenuItem(h.DB, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("Menu item %d not found", id))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "menu.get")
	}

	return utils.SuccessResponse(c, item, fiber.StatusOK)
}

// Categories handles GET /api/menu/categories
// @Summary List menu categories
// @Tags Menu
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /menu/categories [get]
func (h *MenuHandler) Categories(c *fiber.Ctx) error {
	categories, err := services.Categories(h.DB)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "menu.categories")
	}

	return utils.SuccessResponse(c, categories, fiber.StatusOK)
}

// CreateMenuItem handles POST /api/menu
// @Summary Create a menu item
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.MenuItemInput true "Menu item payload"
// @Success 201 {object} models.MenuItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /menu [post]
func (h *MenuHandler) CreateMenuItem(c *fiber.Ctx) error {
	var input services.MenuItemInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "menu.create")
	}

	item, err := services.CreateMenuItem(h.DB, input)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "menu.create")
	}

	return utils.SuccessResponse(c, item, fiber.StatusCreated)
}

// UpdateMenuItem handles PUT /api/menu/:id
// @Summary Update a menu item
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu item ID"
// @Param body body services.MenuItemInput true "Fields to update"
// @Success 200 {object} models.MenuItem
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /menu/{id} [put]
func (h *MenuHandler) UpdateMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid menu item id", fiber.StatusBadRequest, "menu.update")
	}

	var input services.MenuItemInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "menu.update")
	}

	item, err := services.UpdateMenuItem(h.DB, id, input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("Menu item %d not found", id))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "menu.update")
	}

	return utils.SuccessResponse(c, item, fiber.StatusOK)
}

// DeleteMenuItem handles DELETE /api/menu/:id
// @Summary Delete a menu item
// @Tags Menu
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /menu/{id} [delete]
func (h *MenuHandler) DeleteMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, "Invalid menu item id", fiber.StatusBadRequest, "menu.delete")
	}

	if err := services.DeleteMenuItem(h.DB, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("Menu item %d not found", id))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "menu.delete")
	}

	return utils.SuccessResponse(c, fiber.Map{"message": "Menu item deleted"}, fiber.StatusOK)
}
