package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type RestaurantService struct {
	repo repository.Repository
}

func NewRestaurantService(repo repository.Repository) *RestaurantService {
	return &RestaurantService{repo: repo}
}

func (s *RestaurantService) GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	restaurant, err := s.repo.GetRestaurantBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, lookupErr(err, "Restaurant not found")
	}
	return restaurant, nil
}

func (s *RestaurantService) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	restaurant, err := s.repo.GetRestaurant(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Restaurant not found")
	}
	return restaurant, nil
}

// Create onboards a restaurant. Zero service time and party size fall back to the defaults.
func (s *RestaurantService) Create(ctx context.Context, restaurant *models.Restaurant) error {
	restaurant.Name = strings.TrimSpace(restaurant.Name)
	restaurant.Slug = strings.ToLower(strings.TrimSpace(restaurant.Slug))

	if restaurant.Name == "" {
		return invalid("Restaurant name is required")
	}
	if !slugPattern.MatchString(restaurant.Slug) {
		return invalid("Slug must contain only lowercase letters, digits and dashes")
	}
	if restaurant.AvgServiceTimeMinutes <= 0 {
		restaurant.AvgServiceTimeMinutes = models.DefaultAvgServiceTimeMinutes
	}
	if restaurant.Settings.MaxPartySize <= 0 {
		restaurant.Settings.MaxPartySize = models.DefaultMaxPartySize
	}

	if err := s.repo.CreateRestaurant(ctx, restaurant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return conflict("Slug %s is already taken", restaurant.Slug)
		}
		return err
	}
	return nil
}
