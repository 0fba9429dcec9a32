package delivery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/label"
	"github.com/zombor/logiflow/internal/scanning"
)

// maxScanBody bounds a base64 label photo (50MB covers high-resolution phone photos)
const maxScanBody = 50 << 20

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes an {"error": message} body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, label.ErrInputMissing),
		errors.Is(err, label.ErrImageDecode),
		errors.Is(err, ErrEmptyAddress),
		errors.Is(err, ErrInvalidOrigin):
		return http.StatusBadRequest
	case errors.Is(err, label.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, label.ErrRecognition),
		errors.Is(err, scanning.ErrExtractionServiceEmpty),
		errors.Is(err, scanning.ErrExtractionParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes the mapped status. Collaborator failures keep their
// cause in the body; unexpected failures are logged and hidden.
func serviceError(w http.ResponseWriter, message string, err error) {
	code := statusFor(err)
	switch code {
	case http.StatusInternalServerError:
		slog.Error(message, "error", err)
		jsonError(w, "Internal server error", code)
		return
	case http.StatusBadGateway:
		slog.Warn(message, "error", err)
	}
	jsonError(w, err.Error(), code)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.profile)
}

// handleScan reads a label photo and returns the resolved address
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBody)

	var req struct {
		Image       string `json:"image"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Image is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.ScanLabel(r.Context(), req.Image, req.ContentType)
	if err != nil {
		serviceError(w, "Error scanning label", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGeocode resolves an address without saving it
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var rec address.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.Geocode(r.Context(), rec))
}

// handleListDeliveries returns deliveries, optionally filtered by ?status=
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	if status != "" && status != StatusPending && status != StatusCompleted {
		jsonError(w, "Unknown status", http.StatusBadRequest)
		return
	}

	deliveries, err := s.service.ListDeliveries(status)
	if err != nil {
		serviceError(w, "Error listing deliveries", err)
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}

// handleCreateDelivery saves a delivery, geocoding it when no location is given
func (s *Server) handleCreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		address.Record
		Location *address.GeoPoint `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	delivery, err := s.service.CreateDelivery(r.Context(), req.Record, req.Location)
	if err != nil {
		serviceError(w, "Error creating delivery", err)
		return
	}

	writeJSON(w, http.StatusCreated, delivery)
}

// handleDeleteAllDeliveries clears every delivery
func (s *Server) handleDeleteAllDeliveries(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.DeleteAllDeliveries()
	if err != nil {
		serviceError(w, "Error deleting deliveries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": count})
}

// handleGetDelivery returns a single delivery
func (s *Server) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	delivery, err := s.service.GetDelivery(r.PathValue("id"))
	if err != nil {
		serviceError(w, "Error getting delivery", err)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// handleDeleteDelivery deletes a delivery
func (s *Server) handleDeleteDelivery(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDelivery(r.PathValue("id")); err != nil {
		serviceError(w, "Error deleting delivery", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCompleteDelivery marks one delivery as completed
func (s *Server) handleCompleteDelivery(w http.ResponseWriter, r *http.Request) {
	delivery, err := s.service.CompleteDelivery(r.PathValue("id"))
	if err != nil {
		serviceError(w, "Error completing delivery", err)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// handleCompleteDeliveries marks several deliveries as completed
func (s *Server) handleCompleteDeliveries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeliveryIDs []string `json:"delivery_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.DeliveryIDs) == 0 {
		jsonError(w, "At least one delivery ID is required", http.StatusBadRequest)
		return
	}

	deliveries, err := s.service.CompleteDeliveries(req.DeliveryIDs)
	if err != nil {
		serviceError(w, "Error completing deliveries", err)
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}

// handleDeliveryLinks returns navigation and contact links
func (s *Server) handleDeliveryLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.service.Links(r.PathValue("id"))
	if err != nil {
		serviceError(w, "Error building links", err)
		return
	}

	writeJSON(w, http.StatusOK, links)
}

// handlePlanRoute orders pending deliveries from the given origin
func (s *Server) handlePlanRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin address.GeoPoint `json:"origin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	planned, err := s.service.PlanRoute(req.Origin)
	if err != nil {
		serviceError(w, "Error planning route", err)
		return
	}

	writeJSON(w, http.StatusCreated, planned)
}

// handleLatestRoute returns the most recently planned route
func (s *Server) handleLatestRoute(w http.ResponseWriter, r *http.Request) {
	latest, err := s.service.LatestRoute()
	if err != nil {
		serviceError(w, "Error getting route", err)
		return
	}

	writeJSON(w, http.StatusOK, latest)
}
