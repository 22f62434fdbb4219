package database

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const (
	DemoSlug          = "demo-bistro"
	DemoOwnerEmail    = "owner@demo-bistro.test"
	DemoOwnerPassword = "demo-password"
)

var demoTables = []struct {
	number string
	seats  int
	kind   string
}{
	{"1", 2, models.TableTypeBar},
	{"2", 2, models.TableTypeRegular},
	{"3", 4, models.TableTypeRegular},
	{"4", 4, models.TableTypeBooth},
	{"5", 6, models.TableTypeRegular},
	{"6", 8, models.TableTypeOutdoor},
}

// SeedDemo creates the demo restaurant with six tables and an owner account. It does nothing
// when the demo restaurant already exists.
func SeedDemo(ctx context.Context, restaurants *services.RestaurantService, tables *services.TableService, users *services.UserService) error {
	if _, err := restaurants.GetBySlug(ctx, DemoSlug); err == nil {
		return nil
	} else if !errors.Is(err, services.ErrNotFound) {
		return err
	}

	restaurant := &models.Restaurant{
		Name:                  "Demo Bistro",
		Slug:                  DemoSlug,
		Email:                 "hello@demo-bistro.test",
		Address:               "1 Example Street",
		AvgServiceTimeMinutes: models.DefaultAvgServiceTimeMinutes,
		Settings:              models.RestaurantSettings{MaxPartySize: 8, AutoAssignTables: true},
	}
	if err := restaurants.Create(ctx, restaurant); err != nil {
		return err
	}

	for _, t := range demoTables {
		if _, err := tables.Add(ctx, restaurant.ID, t.number, t.seats, t.kind); err != nil {
			return err
		}
	}

	if _, err := users.Register(ctx, restaurant.ID, "Demo Owner", DemoOwnerEmail, DemoOwnerPassword, models.RoleOwner); err != nil {
		return err
	}

	utils.InfoLogger.Printf("Seeded demo restaurant %q (login %s)", DemoSlug, DemoOwnerEmail)
	return nil
}
