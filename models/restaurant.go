package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	DefaultAvgServiceTimeMinutes = 45
	DefaultMaxPartySize          = 12
)

type Restaurant struct {
	ID                    string             `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name                  string             `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Slug                  string             `gorm:"type:varchar(120);uniqueIndex;not null" bson:"slug" json:"slug"`
	Email                 string             `gorm:"type:varchar(255)" bson:"email" json:"email"`
	Phone                 string             `gorm:"type:varchar(50)" bson:"phone,omitempty" json:"phone,omitempty"`
	Address               string             `gorm:"type:varchar(255)" bson:"address,omitempty" json:"address,omitempty"`
	AvgServiceTimeMinutes int                `gorm:"not null;default:45" bson:"avgServiceTimeMinutes" json:"avgServiceTimeMinutes"`
	Settings              RestaurantSettings `gorm:"type:text" bson:"settings" json:"settings"`
	JoinVersion           int64              `gorm:"not null;default:0" bson:"joinVersion" json:"-"`
	CreatedAt             time.Time          `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
}

// ServiceMinutes falls back to the default turnaround when the restaurant never set one.
func (r *Restaurant) ServiceMinutes() int {
	if r.AvgServiceTimeMinutes <= 0 {
		return DefaultAvgServiceTimeMinutes
	}
	return r.AvgServiceTimeMinutes
}

// LayoutPoint is a table position on the staff floor plan.
type LayoutPoint struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
}

// RestaurantSettings is stored as a JSON column in SQL and as a sub-document in Mongo.
type RestaurantSettings struct {
	MaxPartySize     int                    `bson:"maxPartySize,omitempty" json:"maxPartySize,omitempty"`
	AutoAssignTables bool                   `bson:"autoAssignTables" json:"autoAssignTables"`
	TableLayout      map[string]LayoutPoint `bson:"tableLayout,omitempty" json:"tableLayout,omitempty"`
}

func (s RestaurantSettings) MaxParty() int {
	if s.MaxPartySize <= 0 {
		return DefaultMaxPartySize
	}
	return s.MaxPartySize
}

func (s RestaurantSettings) Value() (driver.Value, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (s *RestaurantSettings) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = RestaurantSettings{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("restaurant settings: unsupported column type")
	}
	if len(raw) == 0 {
		*s = RestaurantSettings{}
		return nil
	}
	return json.Unmarshal(raw, s)
}
