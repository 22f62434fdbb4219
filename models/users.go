package models

import "time"

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	RestaurantID string    `gorm:"type:varchar(36);index" bson:"restaurantId" json:"restaurantId"`
	Name         string    `gorm:"type:varchar(255); not null" bson:"name" json:"name"`
	Email        string    `gorm:"type:varchar(255); unique;not null" bson:"email" json:"email"`
	Password     string    `gorm:"type:varchar(255); not null" bson:"password" json:"-"`
	Role         string    `gorm:"type:varchar(20); not null" bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
