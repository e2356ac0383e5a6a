package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/transitpay/backend/internal/config"
	"github.com/transitpay/backend/internal/models"
)

// CatalogService serves the route and bus reference data. The fare engine
// reads route fares through it; nothing in the core ever mutates a route.
type CatalogService struct {
	db     *sql.DB
	redis  *redis.Client
	config *config.FareConfig
}

func NewCatalogService(db *sql.DB, redisClient *redis.Client) *CatalogService {
	return &CatalogService{
		db:     db,
		redis:  redisClient,
		config: config.LoadFareConfig(),
	}
}

// RouteFare returns the configured fare for a route, caching hits in Redis.
// A missing route is a NotFoundError; the fare engine turns that into the
// default-fare fallback.
func (s *CatalogService) RouteFare(ctx context.Context, routeID int) (int64, error) {
	key := fmt.Sprintf("fare:route:%d", routeID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Int64(); err == nil {
			return cached, nil
		}
	}

	var fare int64
	err := s.db.QueryRowContext(ctx, `SELECT fare FROM routes WHERE id = $1`, routeID).Scan(&fare)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NewNotFoundError("route %d not found", routeID)
	}
	if err != nil {
		return 0, NewStorageError(err, "failed to fetch route fare")
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, fare, s.config.RouteFareCacheTTL).Err(); err != nil {
			log.Printf("[CATALOG] Failed to cache fare for route %d: %v", routeID, err)
		}
	}

	return fare, nil
}

// GetRoute fetches a single route.
func (s *CatalogService) GetRoute(ctx context.Context, routeID int) (*models.Route, error) {
	var route models.Route
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_point, end_point, fare FROM routes WHERE id = $1`,
		routeID).Scan(&route.ID, &route.Name, &route.StartPoint, &route.EndPoint, &route.Fare)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewNotFoundError("route %d not found", routeID)
	}
	if err != nil {
		return nil, NewStorageError(err, "failed to fetch route")
	}
	return &route, nil
}

// ListRoutes returns all routes.
func (s *CatalogService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_point, end_point, fare FROM routes ORDER BY id`)
	if err != nil {
		return nil, NewStorageError(err, "failed to list routes")
	}
	defer rows.Close()

	var routes []models.Route
	for rows.Next() {
		var route models.Route
		if err := rows.Scan(&route.ID, &route.Name, &route.StartPoint, &route.EndPoint, &route.Fare); err != nil {
			return nil, NewStorageError(err, "failed to scan route")
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// ListBuses returns all buses.
func (s *CatalogService) ListBuses(ctx context.Context) ([]models.Bus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, driver_name, current_route FROM buses ORDER BY id`)
	if err != nil {
		return nil, NewStorageError(err, "failed to list buses")
	}
	defer rows.Close()

	var buses []models.Bus
	for rows.Next() {
		var bus models.Bus
		var driver sql.NullString
		if err := rows.Scan(&bus.ID, &bus.Number, &driver, &bus.CurrentRoute); err != nil {
			return nil, NewStorageError(err, "failed to scan bus")
		}
		bus.DriverName = driver.String
		buses = append(buses, bus)
	}
	return buses, rows.Err()
}

// GetAllRoutes handles route listing
// @Summary List routes
// @Description List all bus routes with their configured fares
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Route
// @Router /routes [get]
func (s *CatalogService) GetAllRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.ListRoutes(r.Context())
	if err != nil {
		SendErrorResponse(w, "Failed to list routes", HTTPStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(routes)
}

// GetRouteByID handles single route lookup
// @Summary Get route
// @Description Fetch one route by ID
// @Tags catalog
// @Produce json
// @Param routeId path int true "Route ID"
// @Success 200 {object} models.Route
// @Failure 404 {object} ErrorResponse
// @Router /routes/{routeId} [get]
func (s *CatalogService) GetRouteByID(w http.ResponseWriter, r *http.Request) {
	routeID, err := strconv.Atoi(chi.URLParam(r, "routeId"))
	if err != nil {
		SendErrorResponse(w, "Invalid route ID", http.StatusBadRequest, nil)
		return
	}

	route, err := s.GetRoute(r.Context(), routeID)
	if err != nil {
		SendErrorResponse(w, "Route not found", HTTPStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(route)
}

// GetAllBuses handles bus listing
// @Summary List buses
// @Description List all buses and their current routes
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Bus
// @Router /buses [get]
func (s *CatalogService) GetAllBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := s.ListBuses(r.Context())
	if err != nil {
		SendErrorResponse(w, "Failed to list buses", HTTPStatus(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buses)
}
