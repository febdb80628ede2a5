package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ModelVersion represents one versioned model artifact on disk.
type ModelVersion struct {
	Version   string       `json:"version"`
	Path      string       `json:"path"`
	CreatedAt time.Time    `json:"created_at"`
	Metrics   ModelMetrics `json:"metrics"`
	IsActive  bool         `json:"is_active"`
}

// ModelMetrics contains evaluation metrics recorded for a model version.
type ModelMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1Score         float64 `json:"f1_score"`
	TrainingSamples int     `json:"training_samples"`
}

// ModelManager handles model versioning and rollback.
type ModelManager struct {
	modelsDir    string
	versionsFile string
	versions     []ModelVersion
	currentModel *ModelVersion
}

// NewModelManager creates a manager rooted at modelsDir.
func NewModelManager(modelsDir string) (*ModelManager, error) {
	mm := &ModelManager{
		modelsDir:    modelsDir,
		versionsFile: filepath.Join(modelsDir, "model_versions.json"),
		versions:     make([]ModelVersion, 0),
	}

	if err := mm.loadVersions(); err != nil {
		log.Warn().Err(err).Msg("failed to load model versions, starting fresh")
	}
	return mm, nil
}

// AddVersion registers a new model artifact with its evaluation metrics.
func (mm *ModelManager) AddVersion(modelPath string, metrics ModelMetrics) error {
	version := ModelVersion{
		Version:   time.Now().Format("20060102-150405"),
		Path:      modelPath,
		CreatedAt: time.Now(),
		Metrics:   metrics,
	}

	mm.versions = append(mm.versions, version)
	sort.Slice(mm.versions, func(i, j int) bool {
		return mm.versions[i].CreatedAt.After(mm.versions[j].CreatedAt)
	})

	return mm.saveVersions()
}

// ActivateVersion marks a specific version as the one the server should load.
func (mm *ModelManager) ActivateVersion(version string) error {
	found := false
	for i := range mm.versions {
		if mm.versions[i].Version == version {
			mm.versions[i].IsActive = true
			mm.currentModel = &mm.versions[i]
			found = true
		} else {
			mm.versions[i].IsActive = false
		}
	}

	if !found {
		return fmt.Errorf("version %s not found", version)
	}
	return mm.saveVersions()
}

// Rollback re-activates the version preceding the active one.
func (mm *ModelManager) Rollback() error {
	if len(mm.versions) < 2 {
		return fmt.Errorf("no previous version available for rollback")
	}

	currentIdx := -1
	for i, v := range mm.versions {
		if v.IsActive {
			currentIdx = i
			break
		}
	}
	if currentIdx == -1 {
		return fmt.Errorf("no active version found")
	}

	if currentIdx+1 < len(mm.versions) {
		return mm.ActivateVersion(mm.versions[currentIdx+1].Version)
	}
	return fmt.Errorf("no previous version available")
}

// GetCurrentVersion returns the currently active version, or nil.
func (mm *ModelManager) GetCurrentVersion() *ModelVersion {
	return mm.currentModel
}

// ListVersions returns all known model versions, newest first.
func (mm *ModelManager) ListVersions() []ModelVersion {
	return mm.versions
}

func (mm *ModelManager) loadVersions() error {
	data, err := os.ReadFile(mm.versionsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal(data, &mm.versions); err != nil {
		return err
	}

	for i := range mm.versions {
		if mm.versions[i].IsActive {
			mm.currentModel = &mm.versions[i]
			break
		}
	}
	return nil
}

func (mm *ModelManager) saveVersions() error {
	data, err := json.MarshalIndent(mm.versions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(mm.versionsFile, data, 0o600)
}
