package main

import (
	"flag"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/artifact"
	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/evaluate"
	"github.com/JanKosminski/HousingPricesInPoland/internal/observability"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pipeline"
	perrors "github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
	"github.com/JanKosminski/HousingPricesInPoland/internal/schema"
	"github.com/JanKosminski/HousingPricesInPoland/internal/shared"
	"github.com/JanKosminski/HousingPricesInPoland/internal/train"
)

func main() {
	retrain := flag.Bool("retrain", false, "run the hyperparameter search even when a saved model exists")
	flag.Parse()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	perrors.SetWarningHandler(func(w error) {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			log.Warn().Object("warning", obj).Msg("data quality warning")
			return
		}
		log.Warn().Err(w).Msg("data quality warning")
	})

	loader := &dataset.Loader{Kinds: schema.DatasetKinds()}
	frame, err := loader.LoadDir(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}
	log.Info().Int("records", frame.NumRows()).Msg("training table assembled")

	// One shared transformation for both this batch run and the serving
	// path; its fitted state ships inside the artifact.
	pipe := pipeline.New()
	if err := pipe.Fit(frame); err != nil {
		log.Fatal().Err(err).Msg("pipeline fit failed")
	}
	X, y, err := pipe.Transform(frame, pipeline.Training)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline transform failed")
	}
	XTrain, XTest, yTrain, yTest, err := dataset.TrainTestSplit(X, y, cfg.TestFraction, cfg.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("train/test split failed")
	}

	tcfg := train.Config{
		Trials:              cfg.SearchTrials,
		Folds:               cfg.CVFolds,
		Seed:                cfg.Seed,
		CategoricalFeatures: pipe.CategoricalFeatureIndices(),
	}

	baseline, err := tcfg.Baseline(XTrain, yTrain)
	if err != nil {
		log.Fatal().Err(err).Msg("baseline training failed")
	}
	baseRep, err := evaluate.Evaluate(baseline, XTest, yTest)
	if err != nil {
		log.Fatal().Err(err).Msg("baseline evaluation failed")
	}
	log.Info().Object("metrics", baseRep).Msg("metrics before tuning")

	// Reuse a previously saved model unless -retrain asks for a fresh
	// search. The cached artifact carries its own pipeline state, so the
	// raw table is re-transformed with it for a comparable evaluation.
	if !*retrain {
		if cached, err := artifact.Load(cfg.ModelPath); err == nil {
			evaluateCached(cached, frame, cfg)
			return
		} else {
			log.Info().Err(err).Msg("no usable saved model, training a new one")
		}
	}

	tuned, params, err := tcfg.Search(XTrain, yTrain)
	if err != nil {
		log.Fatal().Err(err).Msg("hyperparameter search failed")
	}
	tunedRep, err := evaluate.Evaluate(tuned, XTest, yTest)
	if err != nil {
		log.Fatal().Err(err).Msg("tuned evaluation failed")
	}
	log.Info().Object("metrics", tunedRep).Msg("metrics after tuning")
	logFeatureImportance(tuned.GetFeatureImportance("gain"), pipe.FeatureNames)

	art := &artifact.Artifact{
		TransformVersion: pipeline.TransformVersion,
		TrainedAt:        time.Now().UTC(),
		Metrics:          tunedRep,
		Params:           params,
		Model:            tuned,
		Pipeline:         pipe,
	}
	// A save failure is recoverable: the metrics above stand and the model
	// stays usable in this process, it just was not persisted.
	if err := artifact.Save(art, cfg.ModelPath); err != nil {
		log.Error().Err(err).Msg("artifact save failed, continuing without persistence")
		return
	}
	log.Info().Str("path", cfg.ModelPath).Msg("model artifact saved")
}

func evaluateCached(cached *artifact.Artifact, frame *dataset.Frame, cfg shared.Config) {
	X, y, err := cached.Pipeline.Transform(frame, pipeline.Training)
	if err != nil {
		log.Fatal().Err(err).Msg("cached pipeline transform failed")
	}
	var XTest *mat.Dense
	var yTest *mat.VecDense
	if _, XTest, _, yTest, err = dataset.TrainTestSplit(X, y, cfg.TestFraction, cfg.Seed); err != nil {
		log.Fatal().Err(err).Msg("train/test split failed")
	}
	rep, err := evaluate.Evaluate(cached.Model, XTest, yTest)
	if err != nil {
		log.Fatal().Err(err).Msg("cached model evaluation failed")
	}
	log.Info().
		Time("trained_at", cached.TrainedAt).
		Object("metrics", rep).
		Msg("metrics for saved model (use -retrain to search again)")
}

func logFeatureImportance(importance []float64, names []string) {
	if len(importance) == 0 {
		return
	}
	type feat struct {
		name string
		gain float64
	}
	feats := make([]feat, 0, len(importance))
	for i, v := range importance {
		name := "?"
		if i < len(names) {
			name = names[i]
		}
		feats = append(feats, feat{name, v})
	}
	sort.Slice(feats, func(i, j int) bool { return feats[i].gain > feats[j].gain })
	e := log.Info()
	for i, f := range feats {
		if i == 10 {
			break
		}
		e = e.Float64(f.name, f.gain)
	}
	e.Msg("top feature importance by gain")
}
