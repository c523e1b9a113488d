package cause

import (
	"time"

	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
)

type Image struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"altText"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecentDonation is the public view of a captured donation shown on a cause page.
type RecentDonation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsAnonymous bool      `json:"isAnonymous"`
	Amount      float64   `json:"amount"`
	Message     string    `json:"message"`
	Date        time.Time `json:"date"`
}

type Cause struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	ShortDescription string           `json:"shortDescription"`
	Description      string           `json:"description"`
	Goal             float64          `json:"goal"`
	Color            string           `json:"color"`
	FundUsage        string           `json:"fundUsage"`
	Status           string           `json:"status"`
	ShowOnWebsite    bool             `json:"showOnWebsite"`
	Raised           float64          `json:"raised"`
	Images           []Image          `json:"images"`
	RecentDonations  []RecentDonation `json:"recentDonations,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Upload is one image file received with a create or add-images request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func FromDataModel(c *causeDatamodel.Cause, images []causeDatamodel.CauseImage, raised float64) *Cause {
	out := &Cause{
		ID:               c.ID,
		Name:             c.Name,
		ShortDescription: c.ShortDescription,
		Description:      c.Description,
		Goal:             c.Goal,
		Color:            c.Color,
		FundUsage:        c.FundUsage,
		Status:           c.Status,
		ShowOnWebsite:    c.ShowOnWebsite,
		Raised:           raised,
		Images:           make([]Image, 0, len(images)),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for _, img := range images {
		out.Images = append(out.Images, ImageFromDataModel(img))
	}
	return out
}

func ImageFromDataModel(img causeDatamodel.CauseImage) Image {
	return Image{
		ID:        img.ID,
		URL:       img.URL,
		AltText:   img.AltText,
		IsPrimary: img.IsPrimary,
		CreatedAt: img.CreatedAt,
	}
}

// RecentDonationFromDataModel hides the donor name of anonymous donations.
func RecentDonationFromDataModel(d donationDatamodel.Donation) RecentDonation {
	name := d.Name
	if d.IsAnonymous {
		name = ""
	}
	return RecentDonation{
		ID:          d.ID,
		Name:        name,
		IsAnonymous: d.IsAnonymous,
		Amount:      d.Amount,
		Message:     d.Message,
		Date:        d.Date,
	}
}
