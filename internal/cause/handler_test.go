package cause_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"

	"github.com/frahmantamala/donation-management/internal/blobstore"
	"github.com/frahmantamala/donation-management/internal/cause"
	causePostgres "github.com/frahmantamala/donation-management/internal/cause/postgres"
	"github.com/frahmantamala/donation-management/internal/core/database"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartBody(fields map[string]string, files ...part) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		w, err := mw.CreatePart(h)
		Expect(err).NotTo(HaveOccurred())
		_, err = w.Write(f.data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())
	return body, mw.FormDataContentType()
}

var _ = Describe("Cause Handler Integration", func() {
	var (
		router *chi.Mux
		blobs  *blobstore.MemoryStore
	)

	pngBytes := []byte("\x89PNG\r\n\x1a\n0000")

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		blobs = blobstore.NewMemoryStore("https://cdn.test")

		limits := cause.UploadLimits{MaxFileSize: 1 << 10, MaxFiles: 3}
		service := cause.NewService(causePostgres.NewCauseRepository(conn.Gorm), blobs, nil, limits, nil)
		handler := cause.NewHandler(transport.NewBaseHandler(nil), service, limits)

		router = chi.NewRouter()
		router.Get("/causes", handler.ListCauses)
		router.Post("/causes", handler.CreateCauses)
		router.Get("/causes/{id}", handler.GetCause)
		router.Post("/causes/{id}/images", handler.AddImages)
		router.Put("/causes/{id}", handler.UpdateCause)
		router.Delete("/causes", handler.DeleteCauses)
	})

	send := func(method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates causes from JSON", func() {
		w := send(http.MethodPost, "/causes", "application/json",
			bytes.NewBufferString(`{"causes":[{"name":"Clean Water","goal":500,"showOnWebsite":true}]}`))
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created []cause.Cause
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created).To(HaveLen(1))
		Expect(created[0].Status).To(Equal("OPEN"))
		Expect(created[0].Images).To(BeEmpty())
	})

	It("creates a cause from a multipart form with images", func() {
		body, ct := multipartBody(
			map[string]string{"causes": `{"name":"Clean Water","goal":500}`},
			part{"images", "well.png", "image/png", pngBytes},
			part{"images", "pump.png", "", pngBytes},
		)
		w := send(http.MethodPost, "/causes", ct, body)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created []cause.Cause
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created[0].Images).To(HaveLen(2))
		Expect(created[0].Images[0].IsPrimary).To(BeTrue())
		Expect(created[0].Images[0].URL).To(HavePrefix("https://cdn.test/causes/1/"))
		Expect(blobs.Len()).To(Equal(2))
	})

	It("routes indexed image fields to their cause", func() {
		body, ct := multipartBody(
			map[string]string{"causes": `[{"name":"A","goal":1},{"name":"B","goal":1}]`},
			part{"images[1]", "b.png", "image/png", pngBytes},
		)
		w := send(http.MethodPost, "/causes", ct, body)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created []cause.Cause
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created[0].Images).To(BeEmpty())
		Expect(created[1].Images).To(HaveLen(1))
	})

	It("rejects a file larger than the limit", func() {
		body, ct := multipartBody(
			map[string]string{"causes": `{"name":"A","goal":1}`},
			part{"images", "big.png", "image/png", bytes.Repeat([]byte("x"), 2<<10)},
		)
		w := send(http.MethodPost, "/causes", ct, body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_UPLOAD"))
	})

	It("rejects too many files", func() {
		files := []part{}
		for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
			files = append(files, part{"images", name, "image/png", pngBytes})
		}
		body, ct := multipartBody(map[string]string{"causes": `{"name":"A","goal":1}`}, files...)
		w := send(http.MethodPost, "/causes", ct, body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects a non-image upload", func() {
		body, ct := multipartBody(
			map[string]string{"causes": `{"name":"A","goal":1}`},
			part{"images", "notes.txt", "text/plain", []byte("hello")},
		)
		w := send(http.MethodPost, "/causes", ct, body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(blobs.Len()).To(BeZero())
	})

	It("adds images to an existing cause", func() {
		send(http.MethodPost, "/causes", "application/json", bytes.NewBufferString(`{"causes":[{"name":"A","goal":1}]}`))

		body, ct := multipartBody(nil, part{"images", "a.png", "image/png", pngBytes})
		w := send(http.MethodPost, "/causes/1/images", ct, body)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"isPrimary":true`))

		body, ct = multipartBody(nil, part{"images", "a.png", "image/png", pngBytes})
		w = send(http.MethodPost, "/causes/9/images", ct, body)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("requires a multipart body to add images", func() {
		w := send(http.MethodPost, "/causes/1/images", "application/json", bytes.NewBufferString(`{}`))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists only causes shown on the website", func() {
		send(http.MethodPost, "/causes", "application/json",
			bytes.NewBufferString(`{"causes":[{"name":"Public","goal":1,"showOnWebsite":true},{"name":"Draft","goal":1}]}`))

		w := send(http.MethodGet, "/causes", "", &bytes.Buffer{})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Public"))
		Expect(w.Body.String()).NotTo(ContainSubstring("Draft"))
	})

	It("updates and bulk deletes causes", func() {
		send(http.MethodPost, "/causes", "application/json", bytes.NewBufferString(`{"causes":[{"name":"A","goal":1}]}`))

		w := send(http.MethodPut, "/causes/1", "application/json", bytes.NewBufferString(`{"status":"CLOSED"}`))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"CLOSED"`))

		w = send(http.MethodDelete, "/causes", "application/json", bytes.NewBufferString(`{"ids":[1]}`))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = send(http.MethodGet, "/causes/1", "", &bytes.Buffer{})
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(strings.TrimSpace(w.Body.String())).NotTo(BeEmpty())
	})
})
