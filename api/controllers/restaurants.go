package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/api/responses"
	"github.com/arjnair/dineflow-backend/api/validators"
	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	pkgerrors "github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// RestaurantsService is the surface the restaurant endpoints need.
type RestaurantsService interface {
	Register(ctx context.Context, name string) (*models.Restaurant, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.RestaurantStatus) (*models.Restaurant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
}

type registerRestaurantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type setRestaurantStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended off"`
}

// RestaurantRegister creates a restaurant in the billing feed.
func RestaurantRegister(svc RestaurantsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		var req registerRestaurantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.Register(r.Context(), req.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, restaurant)
	}
}

// RestaurantSetStatus flips a restaurant's operating status.
func RestaurantSetStatus(svc RestaurantsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setRestaurantStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.SetStatus(r.Context(), restaurantID, enums.RestaurantStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

// RestaurantDetail loads one restaurant.
func RestaurantDetail(svc RestaurantsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		restaurantID, err := validators.ParsePathUUID(chi.URLParam(r, "restaurantId"), "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.Get(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

// RestaurantList returns every restaurant ordered by name.
func RestaurantList(svc RestaurantsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		restaurants, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurants)
	}
}
