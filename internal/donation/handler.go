package donation

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// CreateDonations accepts {"donations": [...]} or a single donation object.
func (h *Handler) CreateDonations(w http.ResponseWriter, r *http.Request) {
	var items []CreateDonationDTO
	if appErr := h.decodeBatch(r, "donations", &items); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	donations, err := h.Service.CreateDonations(r.Context(), items)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, donations)
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetDonation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) SearchDonations(w http.ResponseWriter, r *http.Request) {
	var filter SearchFilter
	if appErr := h.decodeOptional(r, &filter); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	donations, err := h.Service.SearchDonations(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) CauseDonations(w http.ResponseWriter, r *http.Request) {
	var filter SearchFilter
	if appErr := h.DecodeJSON(r, &filter); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	donations, err := h.Service.CauseDonations(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, donations)
}

// UpdateDonations accepts {"updates": [...]} or a single {"id": ...} object.
func (h *Handler) UpdateDonations(w http.ResponseWriter, r *http.Request) {
	var items []UpdateDonationItem
	if appErr := h.decodeBatch(r, "updates", &items); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	donations, err := h.Service.UpdateDonations(r.Context(), items)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) DeleteDonations(w http.ResponseWriter, r *http.Request) {
	var req DeleteDonationsRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	if err := h.Service.DeleteDonations(r.Context(), req.IDs); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var filter SummaryFilter
	if appErr := h.decodeOptional(r, &filter); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	summary, err := h.Service.Summary(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

// decodeOptional treats an empty body as an empty filter.
func (h *Handler) decodeOptional(r *http.Request, dst interface{}) *internal.AppError {
	if r.ContentLength == 0 {
		return nil
	}
	return h.DecodeJSON(r, dst)
}

// decodeBatch reads either an envelope {key: [...]} or one bare item into dst,
// which must point to a slice.
func (h *Handler) decodeBatch(r *http.Request, key string, dst interface{}) *internal.AppError {
	var raw json.RawMessage
	if appErr := h.DecodeJSON(r, &raw); appErr != nil {
		return appErr
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return internal.NewValidationError("invalid request body: "+err.Error(), internal.ErrCodeValidationFailed)
	}

	body := raw
	if list, ok := fields[key]; ok {
		if len(fields) != 1 {
			return internal.NewValidationError("invalid request body: only "+key+" is allowed", internal.ErrCodeValidationFailed)
		}
		body = list
	} else {
		body = append(append([]byte{'['}, raw...), ']')
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return internal.NewValidationError("invalid request body: "+err.Error(), internal.ErrCodeValidationFailed)
	}
	return nil
}
