package assessment

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/pathwise/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// ── Sessions ───────────────────────────────────────────────

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.Subjects) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "At least one subject is required"})
		return
	}

	resp, err := h.service.StartSession(userID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) NextItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	sessionID := mux.Vars(r)["id"]
	resp, err := h.service.NextItem(userID, sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "no rows") {
			status = http.StatusNotFound
		}
		writeJSON(w, status, models.ErrorResponse{Error: "Failed to select next item"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	sessionID := mux.Vars(r)["id"]

	var req models.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.ItemID == 0 || req.SelectedChoiceID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "item_id and selected_choice_id are required"})
		return
	}

	resp, err := h.service.SubmitResponse(userID, sessionID, req)
	if err != nil {
		if strings.Contains(err.Error(), "pending item") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record response"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SessionResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	sessionID := mux.Vars(r)["id"]
	results, err := h.service.Results(userID, sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ── Profile & recommendations ──────────────────────────────

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	profile, err := h.service.Profile(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load profile"})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	query := r.URL.Query()
	req := models.RecommendationRequest{Limit: intQueryParam(query, "limit", 5)}
	if v := query.Get("min_interest"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			req.MinInterest = &f
		}
	}

	resp, err := h.service.Recommendations(userID, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to build recommendations"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Item bank ──────────────────────────────────────────────

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	id, err := h.service.CreateItem(item)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	subject := models.Subject(r.URL.Query().Get("subject"))
	if subject == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "subject query parameter is required"})
		return
	}

	items, err := h.service.ListItems(subject)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type generateItemsRequest struct {
	Subject          models.Subject `json:"subject"`
	TargetDifficulty float64        `json:"target_difficulty"`
	Count            int            `json:"count"`
}

func (h *Handler) GenerateItems(w http.ResponseWriter, r *http.Request) {
	var req generateItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Count <= 0 {
		req.Count = 4
	}

	outcome, err := h.service.GenerateItems(r.Context(), req.Subject, req.TargetDifficulty, req.Count)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Generation failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

// ── Helpers ────────────────────────────────────────────────

func intQueryParam(query url.Values, key string, fallback int) int {
	if v := query.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
