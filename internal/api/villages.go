package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type VillagesHandler struct {
	ranker         Ranker
	maxUploadBytes int64
}

// DefaultMaxUploadBytes applies when no upload limit is configured.
const DefaultMaxUploadBytes = 10 << 20

func NewVillagesHandler(r Ranker, maxUploadBytes int64) *VillagesHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &VillagesHandler{ranker: r, maxUploadBytes: maxUploadBytes}
}

type createVillageRequest struct {
	Name   string             `json:"desa"`
	Values map[string]float64 `json:"values"`
}

// Create appends a single village.
// POST /api/v1/villages
func (h *VillagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVillageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rec, err := h.ranker.AddVillage(r.Context(), req.Name, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}

	values := make(map[string]float64, len(rec.Values))
	for i, c := range h.ranker.Criteria() {
		if i < len(rec.Values) && rec.Values[i] != nil {
			values[c.Name] = *rec.Values[i]
		}
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"desa":   rec.Name,
		"values": values,
	})
}

// Import appends the rows of an uploaded .csv or .xlsx file.
// POST /api/v1/villages/import (multipart field "file")
func (h *VillagesHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload failed"})
		return
	}

	n, err := h.ranker.ImportVillages(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
