package cause

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusOpen   = "OPEN"
	StatusPaused = "PAUSED"
	StatusClosed = "CLOSED"
)

var Statuses = []string{StatusOpen, StatusPaused, StatusClosed}

type Cause struct {
	ID               int64          `gorm:"primaryKey"`
	Name             string         `gorm:"column:name;uniqueIndex;not null"`
	ShortDescription string         `gorm:"column:short_description"`
	Description      string         `gorm:"column:description;type:text"`
	Goal             float64        `gorm:"column:goal;type:decimal(14,2);not null"`
	Color            string         `gorm:"column:color"`
	FundUsage        string         `gorm:"column:fund_usage;type:text"`
	Status           string         `gorm:"column:status;not null"`
	ShowOnWebsite    bool           `gorm:"column:show_on_website;not null"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Cause) TableName() string {
	return "causes"
}

type CauseImage struct {
	ID        int64          `gorm:"primaryKey"`
	CauseID   int64          `gorm:"column:cause_id;not null;index"`
	URL       string         `gorm:"column:url;not null"`
	AltText   string         `gorm:"column:alt_text"`
	IsPrimary bool           `gorm:"column:is_primary;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (CauseImage) TableName() string {
	return "cause_images"
}
