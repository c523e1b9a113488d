package cause

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/transport"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Limits  UploadLimits
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, limits UploadLimits) *Handler {
	if limits.MaxFileSize <= 0 || limits.MaxFiles <= 0 {
		limits = DefaultUploadLimits
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Limits:      limits,
	}
}

func (h *Handler) ListCauses(w http.ResponseWriter, r *http.Request) {
	causes, err := h.Service.ListCauses(r.Context(), false)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, causes)
}

// ListAllCauses includes causes hidden from the website.
func (h *Handler) ListAllCauses(w http.ResponseWriter, r *http.Request) {
	causes, err := h.Service.ListCauses(r.Context(), true)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, causes)
}

func (h *Handler) GetCause(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.IDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	c, err := h.Service.GetCause(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// CreateCauses accepts either a JSON body {"causes": [...]} or a multipart form
// with a "causes" field holding one cause or an array of causes. Files under
// "images[i]" belong to the i-th cause; plain "images" belong to the first.
func (h *Handler) CreateCauses(w http.ResponseWriter, r *http.Request) {
	var (
		items []CreateCauseDTO
		files map[int][]Upload
	)

	if isMultipart(r) {
		form, appErr := h.parseMultipart(w, r)
		if appErr != nil {
			h.WriteError(w, appErr)
			return
		}
		defer form.RemoveAll()

		if items, appErr = decodeCauses(form.Value["causes"]); appErr != nil {
			h.WriteError(w, appErr)
			return
		}
		if files, appErr = h.collectFiles(form); appErr != nil {
			h.WriteError(w, appErr)
			return
		}
	} else {
		var req CreateCausesRequest
		if appErr := h.DecodeJSON(r, &req); appErr != nil {
			h.WriteError(w, appErr)
			return
		}
		items = req.Causes
	}

	causes, err := h.Service.CreateCauses(r.Context(), items, files)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, causes)
}

func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.IDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	if !isMultipart(r) {
		h.WriteError(w, internal.NewValidationError("multipart/form-data body is required", internal.ErrCodeInvalidUpload))
		return
	}

	form, appErr := h.parseMultipart(w, r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	defer form.RemoveAll()

	files, appErr := h.collectFiles(form)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	images, err := h.Service.AddImages(r.Context(), id, files[0])
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, images)
}

func (h *Handler) UpdateCause(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.IDParam(r, "id")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	var dto UpdateCauseDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	c, err := h.Service.UpdateCause(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCauses(w http.ResponseWriter, r *http.Request) {
	var req UpdateCausesRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	causes, err := h.Service.UpdateCauses(r.Context(), req.Causes)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, causes)
}

func (h *Handler) DeleteCauses(w http.ResponseWriter, r *http.Request) {
	var req DeleteCausesRequest
	if appErr := h.DecodeJSON(r, &req); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	if err := h.Service.DeleteCauses(r.Context(), req.IDs); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, *internal.AppError) {
	maxBody := h.Limits.MaxFileSize*int64(h.Limits.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, internal.NewValidationError("invalid multipart body: "+err.Error(), internal.ErrCodeInvalidUpload)
	}
	return r.MultipartForm, nil
}

// collectFiles groups uploaded files by cause index and enforces the per
// request limits before any file is read.
func (h *Handler) collectFiles(form *multipart.Form) (map[int][]Upload, *internal.AppError) {
	files := make(map[int][]Upload)
	count := 0
	for field, headers := range form.File {
		idx, ok := imageFieldIndex(field)
		if !ok {
			return nil, internal.NewValidationError(fmt.Sprintf("unexpected file field %q", field), internal.ErrCodeInvalidUpload)
		}
		for _, fh := range headers {
			count++
			if count > h.Limits.MaxFiles {
				return nil, internal.NewValidationError(fmt.Sprintf("at most %d images per request", h.Limits.MaxFiles), internal.ErrCodeInvalidUpload)
			}
			if fh.Size > h.Limits.MaxFileSize {
				return nil, internal.NewValidationFieldError(fh.Filename, fmt.Sprintf("image exceeds %d bytes", h.Limits.MaxFileSize), internal.ErrCodeInvalidUpload)
			}
			upload, err := readUpload(fh)
			if err != nil {
				return nil, internal.NewValidationError("failed to read upload: "+err.Error(), internal.ErrCodeInvalidUpload)
			}
			files[idx] = append(files[idx], upload)
		}
	}
	return files, nil
}

func readUpload(fh *multipart.FileHeader) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return Upload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// imageFieldIndex maps "images" to 0 and "images[i]" to i.
func imageFieldIndex(field string) (int, bool) {
	if field == "images" {
		return 0, true
	}
	if !strings.HasPrefix(field, "images[") || !strings.HasSuffix(field, "]") {
		return 0, false
	}
	idx, err := strconv.Atoi(field[len("images[") : len(field)-1])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// decodeCauses reads the "causes" form field, which holds one cause object or
// an array of them.
func decodeCauses(values []string) ([]CreateCauseDTO, *internal.AppError) {
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, internal.NewValidationFieldError("causes", "causes is required", internal.ErrCodeValidationFailed)
	}
	raw := strings.TrimSpace(values[0])

	var items []CreateCauseDTO
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, internal.NewValidationError("invalid causes field: "+err.Error(), internal.ErrCodeValidationFailed)
		}
		return items, nil
	}

	var single CreateCauseDTO
	if err := json.Unmarshal([]byte(raw), &single); err != nil {
		return nil, internal.NewValidationError("invalid causes field: "+err.Error(), internal.ErrCodeValidationFailed)
	}
	return []CreateCauseDTO{single}, nil
}
