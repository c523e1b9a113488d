package cause

import (
	"fmt"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
)

type CreateCauseDTO struct {
	Name             string  `json:"name"`
	ShortDescription string  `json:"shortDescription"`
	Description      string  `json:"description"`
	Goal             float64 `json:"goal"`
	Color            string  `json:"color"`
	FundUsage        string  `json:"fundUsage"`
	Status           string  `json:"status"`
	ShowOnWebsite    bool    `json:"showOnWebsite"`
}

func (d CreateCauseDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("shortDescription", d.ShortDescription).MaxLength(500)
	v.Field("goal", d.Goal).Positive(internal.ErrCodeInvalidAmount)
	v.Field("color", d.Color).MaxLength(32)
	v.Field("status", d.Status).OneOf(internal.ErrCodeInvalidStatus, causeDatamodel.Statuses...)
	return v.Validate()
}

func (d CreateCauseDTO) ToDataModel() *causeDatamodel.Cause {
	status := d.Status
	if status == "" {
		status = causeDatamodel.StatusOpen
	}
	return &causeDatamodel.Cause{
		Name:             d.Name,
		ShortDescription: d.ShortDescription,
		Description:      d.Description,
		Goal:             d.Goal,
		Color:            d.Color,
		FundUsage:        d.FundUsage,
		Status:           status,
		ShowOnWebsite:    d.ShowOnWebsite,
	}
}

// UpdateCauseDTO carries only the fields to change. Present fields are applied
// as given, including zero values, after the same validation as on create.
type UpdateCauseDTO struct {
	Name             *string  `json:"name"`
	ShortDescription *string  `json:"shortDescription"`
	Description      *string  `json:"description"`
	Goal             *float64 `json:"goal"`
	Color            *string  `json:"color"`
	FundUsage        *string  `json:"fundUsage"`
	Status           *string  `json:"status"`
	ShowOnWebsite    *bool    `json:"showOnWebsite"`
}

func (d UpdateCauseDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(255)
	}
	if d.ShortDescription != nil {
		v.Field("shortDescription", *d.ShortDescription).MaxLength(500)
	}
	if d.Goal != nil {
		v.Field("goal", *d.Goal).Positive(internal.ErrCodeInvalidAmount)
	}
	if d.Color != nil {
		v.Field("color", *d.Color).MaxLength(32)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(internal.ErrCodeInvalidStatus, causeDatamodel.Statuses...)
	}
	return v.Validate()
}

func (d UpdateCauseDTO) Apply(row *causeDatamodel.Cause) {
	if d.Name != nil {
		row.Name = *d.Name
	}
	if d.ShortDescription != nil {
		row.ShortDescription = *d.ShortDescription
	}
	if d.Description != nil {
		row.Description = *d.Description
	}
	if d.Goal != nil {
		row.Goal = *d.Goal
	}
	if d.Color != nil {
		row.Color = *d.Color
	}
	if d.FundUsage != nil {
		row.FundUsage = *d.FundUsage
	}
	if d.Status != nil {
		row.Status = *d.Status
	}
	if d.ShowOnWebsite != nil {
		row.ShowOnWebsite = *d.ShowOnWebsite
	}
}

type UpdateCauseItem struct {
	ID int64 `json:"id"`
	UpdateCauseDTO
}

type CreateCausesRequest struct {
	Causes []CreateCauseDTO `json:"causes"`
}

type UpdateCausesRequest struct {
	Causes []UpdateCauseItem `json:"causes"`
}

type DeleteCausesRequest struct {
	IDs []int64 `json:"ids"`
}

func validateCreateBatch(items []CreateCauseDTO) *internal.AppError {
	if len(items) == 0 {
		return internal.ErrEmptyBatch
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return validation.Prefixed(fmt.Sprintf("causes[%d]", i), err)
		}
	}
	return nil
}

func validateUpdateBatch(items []UpdateCauseItem) *internal.AppError {
	if len(items) == 0 {
		return internal.ErrEmptyBatch
	}
	for i, item := range items {
		v := validation.NewValidator()
		v.Field("id", item.ID).Required()
		if err := v.Validate(); err != nil {
			return validation.Prefixed(fmt.Sprintf("causes[%d]", i), err)
		}
		if err := item.Validate(); err != nil {
			return validation.Prefixed(fmt.Sprintf("causes[%d]", i), err)
		}
	}
	return nil
}
