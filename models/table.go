package models

import (
	"strconv"
	"strings"
	"time"
)

const (
	TableAvailable   = "available"
	TableOccupied    = "occupied"
	TableCleaning    = "cleaning"
	TableMaintenance = "maintenance"
)

const (
	TableTypeRegular = "regular"
	TableTypeBooth   = "booth"
	TableTypeBar     = "bar"
	TableTypeOutdoor = "outdoor"
)

type Table struct {
	ID                  string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	RestaurantID        string     `gorm:"type:varchar(36);index;not null" bson:"restaurantId" json:"restaurantId"`
	TableNumber         string     `gorm:"type:varchar(50);not null" bson:"tableNumber" json:"tableNumber"`
	SeatCount           int        `gorm:"not null" bson:"seatCount" json:"seatCount"`
	TableType           string     `gorm:"type:varchar(20);not null;default:'regular'" bson:"tableType" json:"tableType"`
	Status              string     `gorm:"type:varchar(20);not null;default:'available'" bson:"status" json:"status"`
	OccupiedAt          *time.Time `bson:"occupiedAt" json:"occupiedAt,omitempty"`
	CurrentPartySize    *int       `bson:"currentPartySize" json:"currentPartySize,omitempty"`
	CurrentCustomerName *string    `gorm:"type:varchar(255)" bson:"currentCustomerName" json:"currentCustomerName,omitempty"`
	IsActive            bool       `gorm:"not null;default:true" bson:"isActive" json:"isActive"`
	CreatedAt           time.Time  `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

func ValidTableStatus(status string) bool {
	switch status {
	case TableAvailable, TableOccupied, TableCleaning, TableMaintenance:
		return true
	}
	return false
}

func ValidTableType(tableType string) bool {
	switch tableType {
	case TableTypeRegular, TableTypeBooth, TableTypeBar, TableTypeOutdoor:
		return true
	}
	return false
}

// Occupy marks the table as taken by a party. Occupancy fields exist only while occupied.
func (t *Table) Occupy(partySize int, customerName string, at time.Time) {
	t.Status = TableOccupied
	t.OccupiedAt = &at
	t.CurrentPartySize = &partySize
	t.CurrentCustomerName = &customerName
}

func (t *Table) ClearOccupancy() {
	t.OccupiedAt = nil
	t.CurrentPartySize = nil
	t.CurrentCustomerName = nil
}

// NumericNumber is the sort key for table numbers; "12" sorts after "2", non-numeric as 0.
func (t *Table) NumericNumber() int {
	n, err := strconv.Atoi(strings.TrimSpace(t.TableNumber))
	if err != nil {
		return 0
	}
	return n
}
