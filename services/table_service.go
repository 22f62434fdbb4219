package services

import (
	"context"
	"sort"
	"strings"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const maxSuggestions = 3

type TableService struct {
	repo repository.Repository
}

func NewTableService(repo repository.Repository) *TableService {
	return &TableService{repo: repo}
}

// Add creates an available table. Table numbers are unique among the restaurant's active tables.
func (s *TableService) Add(ctx context.Context, restaurantID, tableNumber string, seatCount int, tableType string) (*models.Table, error) {
	tableNumber = strings.TrimSpace(tableNumber)
	if tableNumber == "" {
		return nil, invalid("Table number is required")
	}
	if seatCount < 1 {
		return nil, invalid("Seat count must be at least 1")
	}
	if tableType == "" {
		tableType = models.TableTypeRegular
	}
	if !models.ValidTableType(tableType) {
		return nil, invalid("Invalid table type: %s", tableType)
	}

	table := &models.Table{
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		SeatCount:    seatCount,
		TableType:    tableType,
		Status:       models.TableAvailable,
		IsActive:     true,
	}

	err := s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockRestaurant(ctx, restaurantID); err != nil {
			return lookupErr(err, "Restaurant not found")
		}

		existing, err := tx.ListTables(ctx, restaurantID, repository.TableFilter{ActiveOnly: true})
		if err != nil {
			return err
		}
		for _, t := range existing {
			if t.TableNumber == tableNumber {
				return conflict("Table number %s already exists", tableNumber)
			}
		}

		return tx.CreateTable(ctx, table)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New table created: %s (seats=%d, type=%s)", table.TableNumber, table.SeatCount, table.TableType)
	return table, nil
}

func (s *TableService) ListActive(ctx context.Context, restaurantID string) ([]*models.Table, error) {
	tables, err := s.repo.ListTables(ctx, restaurantID, repository.TableFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	SortTables(tables)
	return tables, nil
}

// SetStatus moves a table between available, cleaning and maintenance. Only seating occupies
// a table, so occupancy details are always cleared here.
func (s *TableService) SetStatus(ctx context.Context, restaurantID, tableID, status string) (*models.Table, error) {
	if !models.ValidTableStatus(status) {
		return nil, invalid("Invalid table status: %s", status)
	}
	if status == models.TableOccupied {
		return nil, invalid("Tables become occupied only by seating a party")
	}

	table, err := s.get(ctx, restaurantID, tableID)
	if err != nil {
		return nil, err
	}

	prev := table.Status
	table.Status = status
	table.ClearOccupancy()
	if err := s.repo.UpdateTable(ctx, table, prev); err != nil {
		return nil, staleErr(err, "Table changed, please retry")
	}

	utils.InfoLogger.Printf("Table %s status changed from %s to %s", table.TableNumber, prev, status)
	return table, nil
}

// Deactivate hides a table from the floor. Occupied tables must be freed first.
func (s *TableService) Deactivate(ctx context.Context, restaurantID, tableID string) (*models.Table, error) {
	table, err := s.get(ctx, restaurantID, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status == models.TableOccupied {
		return nil, conflict("Cannot deactivate an occupied table")
	}
	if !table.IsActive {
		return table, nil
	}

	table.IsActive = false
	if err := s.repo.UpdateTable(ctx, table, table.Status); err != nil {
		return nil, staleErr(err, "Table changed, please retry")
	}
	return table, nil
}

// Suggest ranks the available tables that fit partySize by wasted seats.
func (s *TableService) Suggest(ctx context.Context, restaurantID string, partySize int) ([]*models.Table, error) {
	if partySize < 1 {
		return nil, invalid("Party size must be at least 1")
	}

	tables, err := s.repo.ListTables(ctx, restaurantID, repository.TableFilter{ActiveOnly: true, Status: models.TableAvailable})
	if err != nil {
		return nil, err
	}
	return RankSuggestions(tables, partySize, maxSuggestions), nil
}

func (s *TableService) GetLayout(ctx context.Context, restaurantID string) (map[string]models.LayoutPoint, error) {
	restaurant, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, lookupErr(err, "Restaurant not found")
	}
	if restaurant.Settings.TableLayout == nil {
		return map[string]models.LayoutPoint{}, nil
	}
	return restaurant.Settings.TableLayout, nil
}

// SaveLayout replaces the stored floor plan. Other settings are preserved.
func (s *TableService) SaveLayout(ctx context.Context, restaurantID string, layout map[string]models.LayoutPoint) error {
	if layout == nil {
		return invalid("Table positions are required")
	}

	return s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		restaurant, err := tx.GetRestaurant(ctx, restaurantID)
		if err != nil {
			return lookupErr(err, "Restaurant not found")
		}

		settings := restaurant.Settings
		settings.TableLayout = layout
		return tx.UpdateRestaurantSettings(ctx, restaurantID, settings)
	})
}

func (s *TableService) get(ctx context.Context, restaurantID, tableID string) (*models.Table, error) {
	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, lookupErr(err, "Table not found")
	}
	if table.RestaurantID != restaurantID {
		return nil, notFound("Table not found")
	}
	return table, nil
}

// BestFit returns the smallest available active table seating partySize, ties by id.
func BestFit(tables []*models.Table, partySize int) *models.Table {
	var best *models.Table
	for _, t := range tables {
		if !t.IsActive || t.Status != models.TableAvailable || t.SeatCount < partySize {
			continue
		}
		if best == nil || t.SeatCount < best.SeatCount || (t.SeatCount == best.SeatCount && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

func RankSuggestions(tables []*models.Table, partySize, limit int) []*models.Table {
	fits := make([]*models.Table, 0, len(tables))
	for _, t := range tables {
		if t.IsActive && t.Status == models.TableAvailable && t.SeatCount >= partySize {
			fits = append(fits, t)
		}
	}

	sort.SliceStable(fits, func(i, j int) bool {
		if fits[i].SeatCount != fits[j].SeatCount {
			return fits[i].SeatCount < fits[j].SeatCount
		}
		return fits[i].ID < fits[j].ID
	})

	if len(fits) > limit {
		fits = fits[:limit]
	}
	return fits
}

// SortTables orders tables by numeric table number, then number text, then id.
func SortTables(tables []*models.Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		a, b := tables[i], tables[j]
		if na, nb := a.NumericNumber(), b.NumericNumber(); na != nb {
			return na < nb
		}
		if a.TableNumber != b.TableNumber {
			return a.TableNumber < b.TableNumber
		}
		return a.ID < b.ID
	})
}
