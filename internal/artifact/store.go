// Package artifact persists the trained model together with the fitted
// pipeline state. Bundling them in one blob means inference can never pair a
// model with medians or category domains it was not trained with.
package artifact

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"

	"github.com/JanKosminski/HousingPricesInPoland/internal/evaluate"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pipeline"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// Artifact is the persisted training output: the frozen model, the fitted
// transformation state, and a metric snapshot for provenance. Immutable
// after load; shared read-only by all concurrent inference calls.
type Artifact struct {
	TransformVersion int                     `json:"transformVersion"`
	TrainedAt        time.Time               `json:"trainedAt"`
	Metrics          evaluate.Report         `json:"metrics"`
	Params           lightgbm.TrainingParams `json:"params"`
	Model            *lightgbm.Model         `json:"model"`
	Pipeline         *pipeline.Pipeline      `json:"pipeline"`
}

// Save serializes the artifact to path via a temp file and rename, so a
// crash never leaves a truncated artifact behind. Failure is recoverable
// for the caller: the in-process model stays usable even when persisting it
// did not.
func Save(a *Artifact, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.NewArtifactError("save", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewArtifactError("save", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewArtifactError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewArtifactError("save", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewArtifactError("save", path, err)
	}
	return nil
}

// Load deserializes an artifact from a local path. A missing or corrupt file
// is fatal for the inference service, which must not start without a model,
// and recoverable for the training path, which falls back to retraining.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewArtifactError("load", path, err)
	}
	return decode(data, path)
}

// Fetch performs the one-time remote download of an artifact at service
// startup when the configured source is a URL.
func Fetch(ctx context.Context, url string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewArtifactError("load", url, err)
	}
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewArtifactError("load", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewArtifactError("load", url, errors.Newf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewArtifactError("load", url, err)
	}
	return decode(data, url)
}

func decode(data []byte, source string) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.NewArtifactError("load", source, err)
	}
	if a.Model == nil || a.Pipeline == nil {
		return nil, errors.NewArtifactError("load", source, errors.New("artifact is missing model or pipeline state"))
	}
	if a.TransformVersion != pipeline.TransformVersion {
		return nil, errors.NewArtifactError("load", source,
			errors.Newf("artifact transform version %d, this build expects %d", a.TransformVersion, pipeline.TransformVersion))
	}
	if !a.Pipeline.IsFitted() {
		return nil, errors.NewArtifactError("load", source, errors.New("artifact pipeline is not fitted"))
	}
	return &a, nil
}
