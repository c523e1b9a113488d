package permission_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/donation-management/internal/core/database"
	"github.com/frahmantamala/donation-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/donation-management/internal/permission/postgres"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Permission Handler Integration", func() {
	var router *chi.Mux

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		service := permission.NewService(permissionPostgres.NewPermissionRepository(conn.Gorm), nil)
		handler := permission.NewHandler(transport.NewBaseHandler(nil), service)

		router = chi.NewRouter()
		router.Get("/permissions", handler.ListPermissions)
		router.Post("/permissions", handler.CreatePermission)
		router.Get("/permissions/{id}", handler.GetPermission)
		router.Put("/permissions/{id}", handler.UpdatePermission)
		router.Delete("/permissions/{id}", handler.DeletePermission)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates and fetches a permission", func() {
		w := do(http.MethodPost, "/permissions", `{"name":"manage_causes","description":"Manage causes"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodGet, "/permissions/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"name":"manage_causes"`))
	})

	It("answers 400 on a duplicate name", func() {
		do(http.MethodPost, "/permissions", `{"name":"manage_causes"}`)
		w := do(http.MethodPost, "/permissions", `{"name":"manage_causes"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("NAME_TAKEN"))
	})

	It("answers 400 on a malformed id", func() {
		w := do(http.MethodGet, "/permissions/abc", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for a missing permission", func() {
		w := do(http.MethodDelete, "/permissions/42", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects unknown fields", func() {
		w := do(http.MethodPost, "/permissions", `{"name":"x","bogus":true}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("deletes with a confirmation body", func() {
		do(http.MethodPost, "/permissions", `{"name":"manage_causes"}`)
		w := do(http.MethodDelete, "/permissions/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Permission deleted successfully"))

		w = do(http.MethodGet, "/permissions", "")
		Expect(w.Body.String()).To(Equal("[]\n"))
	})
})
