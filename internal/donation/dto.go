package donation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/google/uuid"
)

const (
	GroupByDay   = "day"
	GroupByMonth = "month"
	GroupByYear  = "year"
)

// DateTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates, both read as UTC.
type DateTime struct {
	time.Time
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", raw)
}

func (d *DateTime) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

type CreateDonationDTO struct {
	CauseID           int64     `json:"causeId"`
	UserID            *int64    `json:"userId"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Amount            float64   `json:"amount"`
	Message           string    `json:"message"`
	Batch             string    `json:"batch"`
	IsAnonymous       bool      `json:"isAnonymous"`
	PaymentStatus     string    `json:"paymentStatus"`
	PaymentMethod     string    `json:"paymentMethod"`
	OrderID           *string   `json:"orderId"`
	PaymentID         *string   `json:"paymentId"`
	PaymentCapturedAt *DateTime `json:"paymentCapturedAt"`
	Date              *DateTime `json:"date"`
}

func (d CreateDonationDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("causeId", d.CauseID).Required()
	v.Field("name", d.Name).MaxLength(255)
	v.Field("email", d.Email).Email().MaxLength(255)
	v.Field("amount", d.Amount).Positive(internal.ErrCodeInvalidAmount)
	v.Field("paymentStatus", d.PaymentStatus).OneOf(internal.ErrCodeInvalidStatus, donationDatamodel.PaymentStatuses...)
	return v.Validate()
}

// ToDataModel fills a new row. now is used when no date is given.
func (d CreateDonationDTO) ToDataModel(now time.Time) *donationDatamodel.Donation {
	status := d.PaymentStatus
	if status == "" {
		status = donationDatamodel.PaymentStatusPending
	}
	date := now.UTC()
	if d.Date != nil {
		date = d.Date.Time.UTC()
	}
	return &donationDatamodel.Donation{
		ID:                uuid.NewString(),
		CauseID:           d.CauseID,
		UserID:            d.UserID,
		Name:              d.Name,
		Email:             d.Email,
		Amount:            d.Amount,
		Message:           d.Message,
		Batch:             d.Batch,
		IsAnonymous:       d.IsAnonymous,
		PaymentStatus:     status,
		PaymentMethod:     d.PaymentMethod,
		OrderID:           d.OrderID,
		PaymentID:         d.PaymentID,
		PaymentCapturedAt: d.PaymentCapturedAt.ptr(),
		Date:              date,
	}
}

// UpdateDonationDTO carries only the fields to change; present fields are
// applied as given, zero values included.
type UpdateDonationDTO struct {
	CauseID           *int64    `json:"causeId"`
	UserID            *int64    `json:"userId"`
	Name              *string   `json:"name"`
	Email             *string   `json:"email"`
	Amount            *float64  `json:"amount"`
	Message           *string   `json:"message"`
	Batch             *string   `json:"batch"`
	IsAnonymous       *bool     `json:"isAnonymous"`
	PaymentStatus     *string   `json:"paymentStatus"`
	PaymentMethod     *string   `json:"paymentMethod"`
	OrderID           *string   `json:"orderId"`
	PaymentID         *string   `json:"paymentId"`
	PaymentCapturedAt *DateTime `json:"paymentCapturedAt"`
	Date              *DateTime `json:"date"`
}

func (d UpdateDonationDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.CauseID != nil {
		v.Field("causeId", *d.CauseID).Required()
	}
	if d.UserID != nil {
		v.Field("userId", *d.UserID).Required()
	}
	if d.Name != nil {
		v.Field("name", *d.Name).MaxLength(255)
	}
	if d.Email != nil {
		v.Field("email", *d.Email).Email().MaxLength(255)
	}
	if d.Amount != nil {
		v.Field("amount", *d.Amount).Positive(internal.ErrCodeInvalidAmount)
	}
	if d.PaymentStatus != nil {
		v.Field("paymentStatus", *d.PaymentStatus).Required().OneOf(internal.ErrCodeInvalidStatus, donationDatamodel.PaymentStatuses...)
	}
	return v.Validate()
}

func (d UpdateDonationDTO) Apply(row *donationDatamodel.Donation) {
	if d.CauseID != nil {
		row.CauseID = *d.CauseID
	}
	if d.UserID != nil {
		row.UserID = d.UserID
	}
	if d.Name != nil {
		row.Name = *d.Name
	}
	if d.Email != nil {
		row.Email = *d.Email
	}
	if d.Amount != nil {
		row.Amount = *d.Amount
	}
	if d.Message != nil {
		row.Message = *d.Message
	}
	if d.Batch != nil {
		row.Batch = *d.Batch
	}
	if d.IsAnonymous != nil {
		row.IsAnonymous = *d.IsAnonymous
	}
	if d.PaymentStatus != nil {
		row.PaymentStatus = *d.PaymentStatus
	}
	if d.PaymentMethod != nil {
		row.PaymentMethod = *d.PaymentMethod
	}
	if d.OrderID != nil {
		row.OrderID = d.OrderID
	}
	if d.PaymentID != nil {
		row.PaymentID = d.PaymentID
	}
	if d.PaymentCapturedAt != nil {
		row.PaymentCapturedAt = d.PaymentCapturedAt.ptr()
	}
	if d.Date != nil {
		row.Date = d.Date.Time.UTC()
	}
}

type UpdateDonationItem struct {
	ID string `json:"id"`
	UpdateDonationDTO
}

type CreateDonationsRequest struct {
	Donations []CreateDonationDTO `json:"donations"`
}

type UpdateDonationsRequest struct {
	Updates []UpdateDonationItem `json:"updates"`
}

type DeleteDonationsRequest struct {
	IDs []string `json:"ids"`
}

// SearchFilter narrows a donation search. Empty fields do not filter.
type SearchFilter struct {
	Status    string    `json:"status"`
	CauseIDs  []int64   `json:"causeIds"`
	StartDate *DateTime `json:"startDate"`
	EndDate   *DateTime `json:"endDate"`
	Search    string    `json:"search"`
}

func (f SearchFilter) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(internal.ErrCodeInvalidStatus, donationDatamodel.PaymentStatuses...)
	v.Field("search", f.Search).MaxLength(255)
	v.Field("endDate", f.EndDate).Custom(dateOrder(f.StartDate, f.EndDate))
	return v.Validate()
}

// Query returns the repository form of the filter, with the search term lowered.
func (f SearchFilter) Query() Query {
	return Query{
		Status:   f.Status,
		CauseIDs: f.CauseIDs,
		From:     f.StartDate.ptr(),
		To:       f.EndDate.ptr(),
		Search:   strings.ToLower(strings.TrimSpace(f.Search)),
	}
}

type SummaryFilter struct {
	CauseIDs  []int64   `json:"causeIds"`
	StartDate *DateTime `json:"startDate"`
	EndDate   *DateTime `json:"endDate"`
	GroupBy   string    `json:"groupBy"`
}

func (f SummaryFilter) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("groupBy", f.GroupBy).OneOf(internal.ErrCodeInvalidGrouping, GroupByDay, GroupByMonth, GroupByYear)
	v.Field("endDate", f.EndDate).Custom(dateOrder(f.StartDate, f.EndDate))
	return v.Validate()
}

func (f SummaryFilter) Query() Query {
	return Query{
		Status:   donationDatamodel.PaymentStatusCaptured,
		CauseIDs: f.CauseIDs,
		From:     f.StartDate.ptr(),
		To:       f.EndDate.ptr(),
	}
}

// Query is a donation filter as the repositories see it. From and To are
// inclusive bounds on the donation date.
type Query struct {
	Status   string
	CauseIDs []int64
	From     *time.Time
	To       *time.Time
	Search   string
}

func dateOrder(start, end *DateTime) func(interface{}) *internal.AppError {
	return func(interface{}) *internal.AppError {
		if start != nil && end != nil && end.Before(start.Time) {
			return internal.NewValidationFieldError("endDate", "endDate must not be before startDate", internal.ErrCodeInvalidDate)
		}
		return nil
	}
}

func validateID(field, id string) *internal.AppError {
	if _, err := uuid.Parse(id); err != nil {
		return internal.NewValidationFieldError(field, field+" must be a valid UUID", internal.ErrCodeInvalidID)
	}
	return nil
}

func validateCreateBatch(items []CreateDonationDTO) *internal.AppError {
	if len(items) == 0 {
		return internal.ErrEmptyBatch
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return validation.Prefixed(fmt.Sprintf("donations[%d]", i), err)
		}
	}
	return nil
}

func validateUpdateBatch(items []UpdateDonationItem) *internal.AppError {
	if len(items) == 0 {
		return internal.ErrEmptyBatch
	}
	for i, item := range items {
		if err := validateID("id", item.ID); err != nil {
			return validation.Prefixed(fmt.Sprintf("updates[%d]", i), err)
		}
		if err := item.Validate(); err != nil {
			return validation.Prefixed(fmt.Sprintf("updates[%d]", i), err)
		}
	}
	return nil
}
