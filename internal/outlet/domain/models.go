package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Outlet is a licensed retail location. Terminals belong to exactly
// one outlet.
type Outlet struct {
	ID        snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Slug      string       `json:"slug" gorm:"uniqueIndex;size:128"`
	Name      string       `json:"name"`
	District  string       `json:"district" gorm:"index;size:64"`
	Address   string       `json:"address"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Outlet) TableName() string {
	return "outlets"
}
