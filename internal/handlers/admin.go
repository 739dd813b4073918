package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/config"
	"github.com/lucverne/bistro-api/internal/graph"
	"github.com/lucverne/bistro-api/internal/services"
	"github.com/lucverne/bistro-api/internal/utils"
	"gorm.io/gorm"
)

// AdminHandler handles the operator dashboard routes
type AdminHandler struct {
	DB     *gorm.DB
	Config *config.Config
	Graph  *graph.Store // nil when the graph store is disabled
}

// RecentLocations handles GET /api/admin/locations
// @Summary Recent location records across all users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum records (default 100)"
// @Success 200 {array} models.UserLocation
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/locations [get]
func (h *AdminHandler) RecentLocations(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 100)

	locations, err := services.RecentLocations(h.DB, limit)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "admin.locations")
	}

	return utils.SuccessResponse(c, locations, fiber.StatusOK)
}

// Fraud handles GET /api/admin/fraud
// @Summary Combined fraud scan
// @Description Runs both graph scans and returns their findings together.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/fraud [get]
func (h *AdminHandler) Fraud(c *fiber.Ctx) error {
	shared := []graph.SharedIPFinding{}
	mismatches := []graph.CityMismatchFinding{}
	if h.Graph != nil {
		shared = h.Graph.SharedIPs(c.UserContext())
		mismatches = h.Graph.CityMismatches(c.UserContext())
	}

	return utils.SuccessResponse(c, fiber.Map{
		"shared_ips":      shared,
		"city_mismatches": mismatches,
	}, fiber.StatusOK)
}

// SharedIPs handles GET /api/admin/fraud/shared-ips
// @Summary IPs used by more than one account
// @Description Recomputed from the identity graph on every call. An
// @Description unreachable graph yields an empty list, not an error.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} graph.SharedIPFinding
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/fraud/shared-ips [get]
func (h *AdminHandler) SharedIPs(c *fiber.Ctx) error {
	if h.Graph == nil {
		return utils.SuccessResponse(c, []graph.SharedIPFinding{}, fiber.StatusOK)
	}
	return utils.SuccessResponse(c, h.Graph.SharedIPs(c.UserContext()), fiber.StatusOK)
}

// CityMismatches handles GET /api/admin/fraud/city-mismatches
// @Summary Accounts ordering from cities other than their registered one
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} graph.CityMismatchFinding
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/fraud/city-mismatches [get]
func (h *AdminHandler) CityMismatches(c *fiber.Ctx) error {
	if h.Graph == nil {
		return utils.SuccessResponse(c, []graph.CityMismatchFinding{}, fiber.StatusOK)
	}
	return utils.SuccessResponse(c, h.Graph.CityMismatches(c.UserContext()), fiber.StatusOK)
}

// GraphView handles GET /api/admin/graph
// @Summary Identity graph snapshot for the dashboard
// @Description Node/edge view of the identity graph plus shared-IP alerts
// @Description computed from the relational location records, so the alert
// @Description list survives a graph outage.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/graph [get]
func (h *AdminHandler) GraphView(c *fiber.Ctx) error {
	view := graph.View{Nodes: []graph.ViewNode{}, Edges: []graph.ViewEdge{}}
	if h.Graph != nil {
		view = h.Graph.Snapshot(c.UserContext())
	}

	alerts, err := services.SharedIPAlerts(h.DB)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "admin.graph")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"graph":            view,
		"shared_ip_alerts": alerts,
	}, fiber.StatusOK)
}

// Statistics handles GET /api/admin/statistics
// @Summary Order statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/statistics [get]
func (h *AdminHandler) Statistics(c *fiber.Ctx) error {
	overall, perUser, err := services.Statistics(h.DB)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "admin.statistics")
	}

	return utils.SuccessResponse(c, fiber.Map{
		"overall":  overall,
		"per_user": perUser,
	}, fiber.StatusOK)
}
