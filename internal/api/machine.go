package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shaharia-lab/coffeebar/internal/service"
	"github.com/shaharia-lab/coffeebar/internal/storage"
)

type fillWaterRequest struct {
	AmountML *int `json:"amount_ml"`
}

type fillCoffeeRequest struct {
	AmountG *int `json:"amount_g"`
}

type brewRequest struct {
	Type string `json:"type"`
}

type messageResponse struct {
	Message string               `json:"message"`
	State   storage.MachineState `json:"state"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.machineSvc.Status(r.Context())
	if err != nil {
		s.logger.Error("load status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Unexpected error while loading the machine status.")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecipes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.machineSvc.Recipes())
}

func (s *Server) handleFillWater(w http.ResponseWriter, r *http.Request) {
	var req fillWaterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errInvalidJSONBody)
		return
	}
	if req.AmountML == nil {
		writeError(w, http.StatusUnprocessableEntity, "Please enter a water amount (ml).")
		return
	}

	st, err := s.machineSvc.FillWater(r.Context(), *req.AmountML)
	if err != nil {
		s.writeServiceError(w, err, "filling water")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Filled %d ml water.", *req.AmountML),
		State:   st,
	})
}

func (s *Server) handleFillCoffee(w http.ResponseWriter, r *http.Request) {
	var req fillCoffeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errInvalidJSONBody)
		return
	}
	if req.AmountG == nil {
		writeError(w, http.StatusUnprocessableEntity, "Please enter a coffee amount (g).")
		return
	}

	st, err := s.machineSvc.FillCoffee(r.Context(), *req.AmountG)
	if err != nil {
		s.writeServiceError(w, err, "filling coffee")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Filled %d g coffee.", *req.AmountG),
		State:   st,
	})
}

func (s *Server) handleBrew(w http.ResponseWriter, r *http.Request) {
	var req brewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errInvalidJSONBody)
		return
	}
	s.brew(w, r, req.Type)
}

// handleBrewDrink returns a body-less shortcut endpoint for a fixed drink.
func (s *Server) handleBrewDrink(drink string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.brew(w, r, drink)
	}
}

func (s *Server) brew(w http.ResponseWriter, r *http.Request, drink string) {
	st, err := s.machineSvc.Brew(r.Context(), drink)
	if err != nil {
		s.writeServiceError(w, err, "brewing")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Enjoy your %s!", strings.ReplaceAll(drink, "_", " ")),
		State:   st,
	})
}

// writeServiceError maps service errors to HTTP responses. Validation
// problems are 422, requests the machine cannot carry out are 400.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, action string) {
	var ve *service.ValidationError
	var re *service.RejectedError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.As(err, &re):
		writeError(w, http.StatusBadRequest, re.Error())
	default:
		s.logger.Error(action+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Unexpected error while %s.", action))
	}
}
