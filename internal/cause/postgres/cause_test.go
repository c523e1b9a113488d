package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/donation-management/internal/cause"
	"github.com/frahmantamala/donation-management/internal/cause/postgres"
	"github.com/frahmantamala/donation-management/internal/core/database"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCauseRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cause Repository Suite")
}

var _ = Describe("CauseRepository", func() {
	var (
		db   *gorm.DB
		repo *postgres.CauseRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = conn.Gorm
		repo = postgres.NewCauseRepository(db)
		ctx = context.Background()
	})

	newCause := func(name string, visible bool) *causeDatamodel.Cause {
		c := &causeDatamodel.Cause{Name: name, Goal: 100, Status: causeDatamodel.StatusOpen, ShowOnWebsite: visible}
		Expect(repo.Create(ctx, c)).To(Succeed())
		return c
	}

	donate := func(causeID int64, amount float64, status string) *donationDatamodel.Donation {
		d := &donationDatamodel.Donation{
			ID:            uuid.NewString(),
			CauseID:       causeID,
			Amount:        amount,
			PaymentStatus: status,
			Date:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}
		Expect(db.Create(d).Error).NotTo(HaveOccurred())
		return d
	}

	Describe("Raised", func() {
		It("sums captured donations and ignores deleted ones", func() {
			water := newCause("Water", true)
			donate(water.ID, 25, donationDatamodel.PaymentStatusCaptured)
			donate(water.ID, 10, donationDatamodel.PaymentStatusPending)
			gone := donate(water.ID, 500, donationDatamodel.PaymentStatusCaptured)
			Expect(db.Delete(gone).Error).NotTo(HaveOccurred())

			raised, err := repo.Raised(ctx, water.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(raised).To(Equal(map[int64]float64{water.ID: 25}))
		})

		It("rounds totals to whole cents", func() {
			water := newCause("Water", true)
			donate(water.ID, 0.1, donationDatamodel.PaymentStatusCaptured)
			donate(water.ID, 0.2, donationDatamodel.PaymentStatusCaptured)

			raised, err := repo.Raised(ctx, water.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(raised[water.ID]).To(Equal(0.3))
		})

		It("leaves causes without donations out of the map", func() {
			water := newCause("Water", true)

			raised, err := repo.Raised(ctx, water.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(raised).To(BeEmpty())
		})
	})

	Describe("LockByID", func() {
		It("returns the live cause inside a transaction", func() {
			water := newCause("Water", true)

			var locked *causeDatamodel.Cause
			err := repo.Transaction(ctx, func(tx cause.RepositoryAPI) error {
				var err error
				locked, err = tx.LockByID(ctx, water.ID)
				return err
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(locked).NotTo(BeNil())
			Expect(locked.Name).To(Equal("Water"))
		})

		It("returns nil for deleted and unknown causes", func() {
			water := newCause("Water", true)
			Expect(repo.SoftDelete(ctx, water.ID)).To(Succeed())

			Expect(repo.LockByID(ctx, water.ID)).To(BeNil())
			Expect(repo.LockByID(ctx, water.ID+1)).To(BeNil())
		})
	})

	Describe("images", func() {
		It("tracks the primary image and hides images of a deleted cause", func() {
			water := newCause("Water", true)
			Expect(repo.HasPrimaryImage(ctx, water.ID)).To(BeFalse())

			Expect(repo.CreateImages(ctx, []causeDatamodel.CauseImage{
				{CauseID: water.ID, URL: "https://cdn.example/a.png", IsPrimary: true},
				{CauseID: water.ID, URL: "https://cdn.example/b.png"},
			})).To(Succeed())
			Expect(repo.HasPrimaryImage(ctx, water.ID)).To(BeTrue())

			images, err := repo.Images(ctx, water.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(images[water.ID]).To(HaveLen(2))
			Expect(images[water.ID][0].IsPrimary).To(BeTrue())

			Expect(repo.SoftDelete(ctx, water.ID)).To(Succeed())

			images, err = repo.Images(ctx, water.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(images).To(BeEmpty())
			Expect(repo.HasPrimaryImage(ctx, water.ID)).To(BeFalse())

			var kept int64
			Expect(db.Unscoped().Model(&causeDatamodel.CauseImage{}).Count(&kept).Error).NotTo(HaveOccurred())
			Expect(kept).To(Equal(int64(2)))
		})
	})

	Describe("List", func() {
		It("hides deleted causes and, unless asked, hidden ones", func() {
			shown := newCause("Shown", true)
			hidden := newCause("Hidden", false)
			gone := newCause("Gone", true)
			Expect(repo.SoftDelete(ctx, gone.ID)).To(Succeed())

			public, err := repo.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(public).To(HaveLen(1))
			Expect(public[0].ID).To(Equal(shown.ID))

			all, err := repo.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect([]int64{all[0].ID, all[1].ID}).To(ConsistOf(shown.ID, hidden.ID))
		})
	})

	Describe("ReserveName", func() {
		It("rejects a name held by a live cause", func() {
			newCause("Water", true)
			Expect(repo.ReserveName(ctx, 0, "Water")).To(MatchError(naming.ErrNameTaken))
		})

		It("lets a cause keep its own name", func() {
			water := newCause("Water", true)
			Expect(repo.ReserveName(ctx, water.ID, "Water")).To(Succeed())
		})

		It("reclaims the name of a deleted cause", func() {
			old := newCause("Water", true)
			Expect(repo.SoftDelete(ctx, old.ID)).To(Succeed())

			Expect(repo.ReserveName(ctx, 0, "Water")).To(Succeed())
			newCause("Water", true)

			var stale causeDatamodel.Cause
			Expect(db.Unscoped().First(&stale, old.ID).Error).NotTo(HaveOccurred())
			Expect(stale.Name).To(HavePrefix("Water__deleted_"))
		})
	})

	Describe("RecentDonations", func() {
		It("returns the newest captured donations up to the limit", func() {
			water := newCause("Water", true)
			for i := 1; i <= 3; i++ {
				d := &donationDatamodel.Donation{
					ID:            uuid.NewString(),
					CauseID:       water.ID,
					Amount:        float64(i),
					PaymentStatus: donationDatamodel.PaymentStatusCaptured,
					Date:          time.Date(2024, 3, i, 0, 0, 0, 0, time.UTC),
				}
				Expect(db.Create(d).Error).NotTo(HaveOccurred())
			}
			donate(water.ID, 99, donationDatamodel.PaymentStatusFailed)

			rows, err := repo.RecentDonations(ctx, water.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Amount).To(Equal(3.0))
			Expect(rows[1].Amount).To(Equal(2.0))
		})
	})
})
