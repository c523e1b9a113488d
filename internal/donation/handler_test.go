package donation_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/donation-management/internal/core/database"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Donation Handler Integration", func() {
	var (
		router  *chi.Mux
		causeID int64
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		c := &causeDatamodel.Cause{Name: "Clean Water", Goal: 100, Status: causeDatamodel.StatusOpen}
		Expect(conn.Gorm.Create(c).Error).NotTo(HaveOccurred())
		causeID = c.ID

		service := donation.NewService(
			donationPostgres.NewDonationRepository(conn.Gorm),
			donationPostgres.NewSummaryRepository(conn.SQLX),
			nil,
		)
		handler := donation.NewHandler(transport.NewBaseHandler(nil), service)

		router = chi.NewRouter()
		router.Post("/donations", handler.CreateDonations)
		router.Put("/donations", handler.UpdateDonations)
		router.Delete("/donations", handler.DeleteDonations)
		router.Post("/donations/search", handler.SearchDonations)
		router.Post("/donations/cause", handler.CauseDonations)
		router.Post("/donations/summary", handler.Summary)
		router.Get("/donations/{id}", handler.GetDonation)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	create := func(body string) []donation.Donation {
		w := do(http.MethodPost, "/donations", body)
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		var out []donation.Donation
		Expect(json.NewDecoder(w.Body).Decode(&out)).To(Succeed())
		return out
	}

	It("accepts a batch envelope and a single donation", func() {
		batch := create(fmt.Sprintf(`{"donations":[{"causeId":%d,"amount":5},{"causeId":%d,"amount":6,"date":"2024-03-01"}]}`, causeID, causeID))
		Expect(batch).To(HaveLen(2))
		Expect(batch[1].Date.Format("2006-01-02")).To(Equal("2024-03-01"))

		single := create(fmt.Sprintf(`{"causeId":%d,"amount":7,"paymentStatus":"CAPTURED"}`, causeID))
		Expect(single).To(HaveLen(1))

		w := do(http.MethodGet, "/donations/"+single[0].ID, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"name":"Clean Water"`))
	})

	It("rejects unknown fields inside a batch", func() {
		w := do(http.MethodPost, "/donations", fmt.Sprintf(`{"donations":[{"causeId":%d,"amount":5,"tip":1}]}`, causeID))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for a donation to a missing cause", func() {
		w := do(http.MethodPost, "/donations", `{"causeId":999,"amount":5}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("updates, searches and deletes", func() {
		d := create(fmt.Sprintf(`{"causeId":%d,"amount":5,"name":"Ana"}`, causeID))[0]

		w := do(http.MethodPut, "/donations", fmt.Sprintf(`{"updates":[{"id":%q,"paymentStatus":"CAPTURED"}]}`, d.ID))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPost, "/donations/search", `{"status":"CAPTURED","search":"an"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(d.ID))

		w = do(http.MethodPost, "/donations/search", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPost, "/donations/cause", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodDelete, "/donations", fmt.Sprintf(`{"ids":[%q]}`, d.ID))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/donations/"+d.ID, "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("summarizes and rejects an unknown grouping", func() {
		create(fmt.Sprintf(`{"causeId":%d,"amount":40,"paymentStatus":"CAPTURED","date":"2024-04-02T08:00:00Z"}`, causeID))

		w := do(http.MethodPost, "/donations/summary", `{"groupBy":"day"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"period":"2024-04-02"`))

		w = do(http.MethodPost, "/donations/summary", `{"groupBy":"fortnight"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_GROUPING"))
	})
})
