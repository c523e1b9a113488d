package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/donation-management/internal/core/database"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/donation"
	"github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestDonationRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Donation Repository Suite")
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC)
}

var _ = Describe("DonationRepository", func() {
	var (
		db    *gorm.DB
		repo  *postgres.DonationRepository
		ctx   context.Context
		water *causeDatamodel.Cause
		donor *userDatamodel.User
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = conn.Gorm
		repo = postgres.NewDonationRepository(db)
		ctx = context.Background()

		water = &causeDatamodel.Cause{Name: "Clean Water", Goal: 100, Status: causeDatamodel.StatusOpen}
		Expect(db.Create(water).Error).NotTo(HaveOccurred())
		donor = &userDatamodel.User{Email: "ana@example.com", Name: "Ana", HashedPassword: "x", IsActive: true}
		Expect(db.Create(donor).Error).NotTo(HaveOccurred())
	})

	insert := func(d donationDatamodel.Donation) *donationDatamodel.Donation {
		d.ID = uuid.NewString()
		if d.CauseID == 0 {
			d.CauseID = water.ID
		}
		if d.PaymentStatus == "" {
			d.PaymentStatus = donationDatamodel.PaymentStatusCaptured
		}
		Expect(repo.Create(ctx, &d)).To(Succeed())
		return &d
	}

	ids := func(rows []*donationDatamodel.Donation) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	Describe("Refs", func() {
		It("resolves causes and users in one call", func() {
			causes, users, err := repo.Refs(ctx, []int64{water.ID}, []int64{donor.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(causes).To(Equal(map[int64]donation.CauseRef{water.ID: {ID: water.ID, Name: "Clean Water"}}))
			Expect(users).To(Equal(map[int64]donation.UserRef{donor.ID: {ID: donor.ID, Name: "Ana", Email: "ana@example.com"}}))
		})

		It("still names deleted causes and users", func() {
			Expect(db.Delete(water).Error).NotTo(HaveOccurred())
			Expect(db.Delete(donor).Error).NotTo(HaveOccurred())

			causes, users, err := repo.Refs(ctx, []int64{water.ID}, []int64{donor.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(causes[water.ID].Name).To(Equal("Clean Water"))
			Expect(users[donor.ID].Email).To(Equal("ana@example.com"))
		})

		It("returns empty maps for no ids", func() {
			causes, users, err := repo.Refs(ctx, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(causes).To(BeEmpty())
			Expect(users).To(BeEmpty())
		})
	})

	Describe("Search", func() {
		It("skips deleted rows under every filter", func() {
			kept := insert(donationDatamodel.Donation{Name: "Ana", Amount: 10, Date: day(2)})
			gone := insert(donationDatamodel.Donation{Name: "Ana", Amount: 20, Date: day(3)})
			Expect(repo.SoftDelete(ctx, gone.ID)).To(Succeed())

			all, err := repo.Search(ctx, donation.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(all)).To(Equal([]string{kept.ID}))

			from, to := day(1), day(5)
			filtered, err := repo.Search(ctx, donation.Query{
				Status:   donationDatamodel.PaymentStatusCaptured,
				CauseIDs: []int64{water.ID},
				From:     &from,
				To:       &to,
				Search:   "ana",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(filtered)).To(Equal([]string{kept.ID}))
		})

		It("keeps the search term inside the other filters", func() {
			insert(donationDatamodel.Donation{Name: "Ana", Amount: 10, Date: day(2), PaymentStatus: donationDatamodel.PaymentStatusPending})
			match := insert(donationDatamodel.Donation{Email: "ana@example.com", Amount: 10, Date: day(3)})

			rows, err := repo.Search(ctx, donation.Query{Status: donationDatamodel.PaymentStatusCaptured, Search: "ana"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(rows)).To(Equal([]string{match.ID}))
		})

		It("treats LIKE wildcards literally", func() {
			insert(donationDatamodel.Donation{Message: "100 percent", Amount: 1, Date: day(2)})
			literal := insert(donationDatamodel.Donation{Message: "100% for wells", Amount: 1, Date: day(3)})

			rows, err := repo.Search(ctx, donation.Query{Search: "0%"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(rows)).To(Equal([]string{literal.ID}))
		})

		It("orders by date, newest first", func() {
			older := insert(donationDatamodel.Donation{Amount: 1, Date: day(2)})
			newer := insert(donationDatamodel.Donation{Amount: 1, Date: day(9)})

			rows, err := repo.Search(ctx, donation.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(rows)).To(Equal([]string{newer.ID, older.ID}))
		})
	})

	Describe("lookups", func() {
		It("hides deleted donations from GetByID", func() {
			d := insert(donationDatamodel.Donation{Amount: 1, Date: day(2)})
			Expect(repo.SoftDelete(ctx, d.ID)).To(Succeed())

			got, err := repo.GetByID(ctx, d.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})

		It("reports only live causes and users as existing", func() {
			Expect(repo.CauseExists(ctx, water.ID)).To(BeTrue())
			Expect(repo.UserExists(ctx, donor.ID)).To(BeTrue())

			Expect(db.Delete(water).Error).NotTo(HaveOccurred())
			Expect(db.Delete(donor).Error).NotTo(HaveOccurred())
			Expect(repo.CauseExists(ctx, water.ID)).To(BeFalse())
			Expect(repo.UserExists(ctx, donor.ID)).To(BeFalse())
		})
	})
})

var _ = Describe("SummaryRepository", func() {
	var (
		repo    *postgres.SummaryRepository
		writer  *postgres.DonationRepository
		ctx     context.Context
		causeID int64
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewSummaryRepository(conn.SQLX)
		writer = postgres.NewDonationRepository(conn.Gorm)
		ctx = context.Background()

		c := &causeDatamodel.Cause{Name: "Shelter", Goal: 50, Status: causeDatamodel.StatusOpen}
		Expect(conn.Gorm.Create(c).Error).NotTo(HaveOccurred())
		causeID = c.ID
	})

	insert := func(amount float64, status string, date time.Time) string {
		d := &donationDatamodel.Donation{ID: uuid.NewString(), CauseID: causeID, Amount: amount, PaymentStatus: status, Date: date}
		Expect(writer.Create(ctx, d)).To(Succeed())
		return d.ID
	}

	captured := donation.Query{Status: donationDatamodel.PaymentStatusCaptured}

	It("leaves deleted and uncaptured donations out of the total", func() {
		insert(10, donationDatamodel.PaymentStatusCaptured, day(2))
		insert(5, donationDatamodel.PaymentStatusPending, day(2))
		gone := insert(40, donationDatamodel.PaymentStatusCaptured, day(3))
		Expect(writer.SoftDelete(ctx, gone)).To(Succeed())

		total, err := repo.Total(ctx, captured)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(10.0))
	})

	It("returns zero when nothing matches", func() {
		total, err := repo.Total(ctx, captured)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeZero())
	})

	It("lists live amounts newest first within the cause filter", func() {
		insert(1, donationDatamodel.PaymentStatusCaptured, day(2))
		insert(2, donationDatamodel.PaymentStatusCaptured, day(7))
		gone := insert(3, donationDatamodel.PaymentStatusCaptured, day(9))
		Expect(writer.SoftDelete(ctx, gone)).To(Succeed())

		q := captured
		q.CauseIDs = []int64{causeID}
		rows, err := repo.Amounts(ctx, q)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Amount).To(Equal(2.0))
		Expect(rows[1].Amount).To(Equal(1.0))

		q.CauseIDs = []int64{causeID + 100}
		rows, err = repo.Amounts(ctx, q)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(BeEmpty())
	})
})
