package donation

import (
	"time"

	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
)

// CauseRef names the cause a donation was made to.
type CauseRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserRef names the registered donor, when there is one.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Donation struct {
	ID                string     `json:"id"`
	CauseID           int64      `json:"causeId"`
	Cause             *CauseRef  `json:"cause,omitempty"`
	UserID            *int64     `json:"userId"`
	User              *UserRef   `json:"user,omitempty"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Amount            float64    `json:"amount"`
	Message           string     `json:"message"`
	Batch             string     `json:"batch"`
	IsAnonymous       bool       `json:"isAnonymous"`
	PaymentStatus     string     `json:"paymentStatus"`
	PaymentMethod     string     `json:"paymentMethod"`
	OrderID           *string    `json:"orderId"`
	PaymentID         *string    `json:"paymentId"`
	PaymentCapturedAt *time.Time `json:"paymentCapturedAt"`
	Date              time.Time  `json:"date"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func FromDataModel(d *donationDatamodel.Donation) *Donation {
	return &Donation{
		ID:                d.ID,
		CauseID:           d.CauseID,
		UserID:            d.UserID,
		Name:              d.Name,
		Email:             d.Email,
		Amount:            d.Amount,
		Message:           d.Message,
		Batch:             d.Batch,
		IsAnonymous:       d.IsAnonymous,
		PaymentStatus:     d.PaymentStatus,
		PaymentMethod:     d.PaymentMethod,
		OrderID:           d.OrderID,
		PaymentID:         d.PaymentID,
		PaymentCapturedAt: d.PaymentCapturedAt,
		Date:              d.Date,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// PeriodTotal is the captured amount of one day, month or year.
type PeriodTotal struct {
	Period string  `json:"period"`
	Sum    float64 `json:"sum"`
}

type Summary struct {
	Total   float64       `json:"total"`
	Grouped []PeriodTotal `json:"grouped"`
}

// DatedAmount is one captured donation as seen by the summary.
type DatedAmount struct {
	Amount float64   `db:"amount"`
	Date   time.Time `db:"date"`
}
