package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanKosminski/HousingPricesInPoland/internal/artifact"
	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pipeline"
	"github.com/JanKosminski/HousingPricesInPoland/internal/train"
)

// fixtureService trains a small model over a synthetic full-schema table and
// mounts it behind the real router, middleware stack included.
func fixtureService(t *testing.T) http.Handler {
	t.Helper()
	n := 120
	rng := rand.New(rand.NewSource(11))
	f := dataset.NewFrame(n)

	pick := func(vals ...string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = vals[rng.Intn(len(vals))]
		}
		return out
	}
	uniform := func(lo, hi float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = lo + rng.Float64()*(hi-lo)
		}
		return out
	}
	area := uniform(25, 120)
	dist := uniform(0.5, 15)
	price := make([]float64, n)
	for i := range price {
		price[i] = area[i] * (16000 - 600*dist[i] + rng.Float64()*1000)
	}

	require.NoError(t, f.AddCategorical("city", pick("krakow", "gdansk", "warszawa")))
	require.NoError(t, f.AddCategorical("type", pick("blockOfFlats", "tenement")))
	require.NoError(t, f.AddNumeric("squareMeters", area))
	require.NoError(t, f.AddNumeric("rooms", uniform(1, 5)))
	require.NoError(t, f.AddNumeric("floor", uniform(1, 10)))
	require.NoError(t, f.AddNumeric("floorCount", uniform(2, 12)))
	require.NoError(t, f.AddNumeric("buildYear", uniform(1950, 2022)))
	require.NoError(t, f.AddNumeric("latitude", uniform(50, 54)))
	require.NoError(t, f.AddNumeric("longitude", uniform(17, 22)))
	require.NoError(t, f.AddNumeric("centreDistance", dist))
	require.NoError(t, f.AddNumeric("poiCount", uniform(0, 50)))
	require.NoError(t, f.AddNumeric("schoolDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddNumeric("clinicDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddNumeric("postOfficeDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddNumeric("kindergartenDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddNumeric("restaurantDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddNumeric("collegeDistance", uniform(0.1, 5)))
	require.NoError(t, f.AddNumeric("pharmacyDistance", uniform(0.1, 3)))
	require.NoError(t, f.AddCategorical("ownership", pick("condominium", "cooperative")))
	require.NoError(t, f.AddCategorical("buildingMaterial", pick("brick", "concreteSlab")))
	require.NoError(t, f.AddCategorical("condition", pick("premium", "low", "")))
	require.NoError(t, f.AddCategorical("hasParkingSpace", pick("yes", "no")))
	require.NoError(t, f.AddCategorical("hasBalcony", pick("yes", "no")))
	require.NoError(t, f.AddCategorical("hasElevator", pick("yes", "no")))
	require.NoError(t, f.AddCategorical("hasSecurity", pick("yes", "no")))
	require.NoError(t, f.AddCategorical("hasStorageRoom", pick("yes", "no")))
	dates := make([]string, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("2023-%02d-01", 1+rng.Intn(12))
	}
	require.NoError(t, f.AddCategorical("date", dates))
	require.NoError(t, f.AddNumeric("price", price))

	pipe := pipeline.New()
	require.NoError(t, pipe.Fit(f))
	X, y, err := pipe.Transform(f, pipeline.Training)
	require.NoError(t, err)
	cfg := train.DefaultConfig()
	cfg.CategoricalFeatures = pipe.CategoricalFeatureIndices()
	model, err := cfg.Baseline(X, y)
	require.NoError(t, err)

	srv := New()
	srv.MountHandlers(NewService(&artifact.Artifact{Model: model, Pipeline: pipe}))
	return srv.Mux()
}

func validRequestBody() map[string]any {
	return map[string]any{
		"city":            "Kraków",
		"type":            "blockOfFlats",
		"squareMeters":    52.5,
		"rooms":           3,
		"latitude":        50.06,
		"longitude":       19.94,
		"centreDistance":  2.5,
		"poiCount":        15,
		"ownership":       "condominium",
		"hasParkingSpace": "yes",
		"hasBalcony":      "no",
		"hasSecurity":     "no",
		"hasStorageRoom":  "yes",
		"date":            "2023-09-15",
	}
}

func postPredict(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLivenessEndpoint(t *testing.T) {
	h := fixtureService(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "up")
}

func TestPredictReturnsOneValue(t *testing.T) {
	h := fixtureService(t)
	rec := postPredict(t, h, validRequestBody())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Prediction []float64 `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Prediction, 1)
	v := resp.Prediction[0]
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "prediction %v", v)
	assert.Greater(t, v, 0.0, "price per area must be positive for in-range input")
}

func TestPredictOmittedOptionalFields(t *testing.T) {
	h := fixtureService(t)
	// No floor, buildYear, condition, hasElevator: imputation fills them.
	rec := postPredict(t, h, validRequestBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPredictUnseenCategory(t *testing.T) {
	h := fixtureService(t)
	body := validRequestBody()
	body["city"] = "Bielsko-Biała" // not in the training domain
	rec := postPredict(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPredictMalformedBody(t *testing.T) {
	h := fixtureService(t)
	rec := postPredict(t, h, "{not json")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestPredictMissingRequiredFields(t *testing.T) {
	h := fixtureService(t)
	body := validRequestBody()
	delete(body, "city")
	delete(body, "squareMeters")
	rec := postPredict(t, h, body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var prob struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prob))
	assert.Equal(t, "Invalid Listing", prob.Title)
	assert.Contains(t, prob.Detail, "city")
	assert.Contains(t, prob.Detail, "squareMeters")
}

func TestPredictRejectsBadArea(t *testing.T) {
	h := fixtureService(t)
	body := validRequestBody()
	body["squareMeters"] = -5
	rec := postPredict(t, h, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
