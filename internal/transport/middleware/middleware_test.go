package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("filterSensitiveBody", func() {
	It("masks nested secrets in JSON bodies", func() {
		out := filterSensitiveBody([]byte(`{"email":"a@b.c","password":"x","items":[{"idToken":"t"}]}`))
		Expect(out).To(ContainSubstring(`"password":"[FILTERED]"`))
		Expect(out).To(ContainSubstring(`"idToken":"[FILTERED]"`))
		Expect(out).To(ContainSubstring(`"email":"a@b.c"`))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with a 500 envelope", func() {
		h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring(`"INTERNAL_ERROR"`))
		Expect(w.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("RequestID", func() {
	It("keeps the caller's trace id", func() {
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceHeader, "trace-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Header().Get(TraceHeader)).To(Equal("trace-1"))
	})

	It("mints one when missing", func() {
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(w.Header().Get(TraceHeader)).To(HaveLen(36))
	})
})

var _ = Describe("CORS", func() {
	handler := CORS([]string{"https://unitedforgood.org"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	It("answers preflight for allowed origins", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/causes", nil)
		req.Header.Set("Origin", "https://unitedforgood.org")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://unitedforgood.org"))
	})

	It("does not echo unknown origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/causes", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusTeapot))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("Metrics", func() {
	It("counts requests by route pattern", func() {
		m := NewMetrics("donations")
		r := chi.NewRouter()
		r.Use(m.Middleware)
		r.Get("/causes/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", m.Handler())

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/causes/12", nil))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		body := w.Body.String()
		Expect(strings.Contains(body, `donations_http_requests_total{method="GET",route="/causes/{id}",status="200"} 1`)).To(BeTrue())
	})
})
