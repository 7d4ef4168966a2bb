package server

import (
	"encoding/json"
	"net/http"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"github.com/rs/zerolog/log"

	"github.com/JanKosminski/HousingPricesInPoland/internal/artifact"
	"github.com/JanKosminski/HousingPricesInPoland/internal/observability"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pipeline"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
	"github.com/JanKosminski/HousingPricesInPoland/internal/schema"
)

// Service is the immutable per-process inference context: the frozen model
// and the fitted pipeline it was trained with.
type Service struct {
	model *lightgbm.Model
	pipe  *pipeline.Pipeline
}

// NewService builds the service context from a loaded artifact.
func NewService(a *artifact.Artifact) *Service {
	return &Service{model: a.Model, pipe: a.Pipeline}
}

// Predict validates one listing, replays the shared transformation in
// inference mode, and invokes the frozen model.
func (s *Service) Predict(rec *schema.ListingRecord) (float64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	X, _, err := s.pipe.Transform(rec.Frame(), pipeline.Inference)
	if err != nil {
		return 0, err
	}
	pred, err := s.model.Predict(X)
	if err != nil {
		return 0, errors.Wrap(err, "model prediction")
	}
	return pred.At(0, 0), nil
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type predictionResponse struct {
	Prediction []float64 `json:"prediction"`
}

// MountHandlers registers the HTTP surface.
func (s *Server) MountHandlers(svc *Service) {
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "housing price prediction service is up"})
	})
	s.mux.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		var rec schema.ListingRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			observability.ObservePrediction("validation_error")
			writeProblem(w, http.StatusUnprocessableEntity, "Malformed Body", err.Error())
			return
		}
		value, err := svc.Predict(&rec)
		if err != nil {
			var verr *errors.ValidationError
			if errors.As(err, &verr) {
				observability.ObservePrediction("validation_error")
				writeProblem(w, http.StatusUnprocessableEntity, "Invalid Listing", verr.Error())
				return
			}
			observability.ObservePrediction("internal_error")
			log.Error().Err(err).Msg("prediction failed")
			writeProblem(w, http.StatusInternalServerError, "Prediction Failed", "")
			return
		}
		observability.ObservePrediction("ok")
		writeJSON(w, http.StatusOK, predictionResponse{Prediction: []float64{value}})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}
