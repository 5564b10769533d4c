package restaurants

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/pkg/db/models"
	"github.com/arjnair/dineflow-backend/pkg/enums"
	"github.com/arjnair/dineflow-backend/pkg/errors"
	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// ServiceParams carries the dependencies for the restaurant service.
type ServiceParams struct {
	Logger *logger.Logger
	Repo   Repository
	Now    func() time.Time
}

// Service manages the restaurant status feed consumed by billing.
type Service struct {
	logger *logger.Logger
	repo   Repository
	now    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("restaurant repository is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{logger: params.Logger, repo: params.Repo, now: params.Now}, nil
}

// Register creates a restaurant with the provided display name.
func (s *Service) Register(ctx context.Context, name string) (*models.Restaurant, error) {
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "restaurant name is required")
	}
	restaurant := &models.Restaurant{
		Name:   name,
		Status: enums.RestaurantStatusActive,
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating restaurant")
	}

	ctx = s.logger.WithRestaurantID(ctx, restaurant.ID.String())
	s.logger.Info(ctx, "restaurant registered")
	return restaurant, nil
}

// SetStatus updates a restaurant's operating status. Leaving active stamps
// the deactivation time; returning to active clears it.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status enums.RestaurantStatus) (*models.Restaurant, error) {
	ctx = s.logger.WithRestaurantID(ctx, id.String())

	if !status.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown restaurant status").
			WithDetails(map[string]any{"status": string(status)})
	}

	restaurant, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading restaurant")
	}
	if restaurant == nil {
		return nil, errors.New(errors.CodeNotFound, "restaurant not found")
	}

	if restaurant.Status == status {
		return restaurant, nil
	}

	previous := restaurant.Status
	restaurant.Status = status
	if status == enums.RestaurantStatusActive {
		restaurant.DeactivatedAt = nil
	} else if previous == enums.RestaurantStatusActive {
		deactivated := s.now().UTC()
		restaurant.DeactivatedAt = &deactivated
	}

	if err := s.repo.Update(ctx, restaurant); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "updating restaurant status")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{"from": previous, "to": status})
	s.logger.Info(ctx, "restaurant status changed")
	return restaurant, nil
}

// Get loads a single restaurant.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading restaurant")
	}
	if restaurant == nil {
		return nil, errors.New(errors.CodeNotFound, "restaurant not found")
	}
	return restaurant, nil
}

// List returns every restaurant ordered by name.
func (s *Service) List(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing restaurants")
	}
	return restaurants, nil
}
