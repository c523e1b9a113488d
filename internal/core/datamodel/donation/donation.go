package donation

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusCaptured = "CAPTURED"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// PaymentStatuses lists every accepted payment status.
var PaymentStatuses = []string{PaymentStatusPending, PaymentStatusCaptured, PaymentStatusFailed, PaymentStatusRefunded}

type Donation struct {
	ID                string         `gorm:"primaryKey;column:id;type:varchar(36)"`
	CauseID           int64          `gorm:"column:cause_id;not null;index"`
	UserID            *int64         `gorm:"column:user_id;index"`
	Name              string         `gorm:"column:name"`
	Email             string         `gorm:"column:email"`
	Amount            float64        `gorm:"column:amount;type:decimal(14,2);not null"`
	Message           string         `gorm:"column:message;type:text"`
	Batch             string         `gorm:"column:batch"`
	IsAnonymous       bool           `gorm:"column:is_anonymous;not null"`
	PaymentStatus     string         `gorm:"column:payment_status;not null;index"`
	PaymentMethod     string         `gorm:"column:payment_method"`
	OrderID           *string        `gorm:"column:order_id"`
	PaymentID         *string        `gorm:"column:payment_id"`
	PaymentCapturedAt *time.Time     `gorm:"column:payment_captured_at"`
	Date              time.Time      `gorm:"column:date;not null;index"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Donation) TableName() string {
	return "donations"
}
