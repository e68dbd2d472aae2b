package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ble-atlas/internal/engine"
	"ble-atlas/internal/models"
)

type positionRequest struct {
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Name string   `json:"name"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type scaleRequest struct {
	PixelLength     float64 `json:"pixelLength"`
	RealWorldLength float64 `json:"realWorldLength"`
	Unit            string  `json:"unit"`
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := s.engine.SubmitReport(r.Context(), &report); err != nil {
		if errors.Is(err, engine.ErrMalformedReport) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to process report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"received": true,
	})
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) setDisplayPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.X == nil || req.Y == nil {
		writeJSONError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	if err := s.engine.SetObserverPosition(r.Context(), id, *req.X, *req.Y, req.Name); err != nil {
		if errors.Is(err, engine.ErrMalformedReport) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to set position")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) renameDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := s.engine.RenameObserver(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, engine.ErrMalformedReport) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to rename display")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) deleteDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.engine.DeleteObserver(r.Context(), id); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to delete display")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) setScale(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	record, err := s.engine.SetScale(r.Context(), req.PixelLength, req.RealWorldLength, req.Unit)
	if err != nil {
		if errors.Is(err, engine.ErrMalformedReport) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to set scale")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) getScale(w http.ResponseWriter, r *http.Request) {
	record := s.engine.GetScale()
	if record == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"configured": false})
		return
	}
	writeJSON(w, http.StatusOK, record)
}
