package store

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const storeLogPrefix = "store"

// FileStore - flat-file persistence for every pipeline artifact. Each
// stage owns its output files exclusively; stages never run
// concurrently.
type FileStore struct {
	dataDir string
}

// NewFileStore - file store rooted at dataDir
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

func (s *FileStore) RoadsPath(cityKey string) string {
	return filepath.Join(s.dataDir, "roads", cityKey+"_roads.csv")
}

func (s *FileStore) LocationsPath() string {
	return filepath.Join(s.dataDir, "samples", "locations.csv")
}

func (s *FileStore) SampleMapPath() string {
	return filepath.Join(s.dataDir, "samples", "map.html")
}

func (s *FileStore) CoveragePath() string {
	return filepath.Join(s.dataDir, "coverage", "coverage.csv")
}

func (s *FileStore) ImagesDir() string {
	return filepath.Join(s.dataDir, "images")
}

func (s *FileStore) DownloadResultsPath() string {
	return filepath.Join(s.dataDir, "images", "download_results.csv")
}

func (s *FileStore) ManifestPath() string {
	return filepath.Join(s.dataDir, "annotation.csv")
}

func (s *FileStore) TasksPath() string {
	return filepath.Join(s.dataDir, "labelstudio_tasks.json")
}

func (s *FileStore) AnalysisDir() string {
	return filepath.Join(s.dataDir, "analysis")
}

func (s *FileStore) CitySummaryPath() string {
	return filepath.Join(s.AnalysisDir(), "summary_city.csv")
}

func (s *FileStore) RoadTypeSummaryPath() string {
	return filepath.Join(s.AnalysisDir(), "summary_road_type.csv")
}

func (s *FileStore) MetricMapPath() string {
	return filepath.Join(s.AnalysisDir(), "map_proportion_women.html")
}

// writeCSV writes a header plus rows, creating parent directories
func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "write header of %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "write rows of %s", path)
	}
	w.Flush()

	return errors.Wrapf(w.Error(), "flush %s", path)
}

// columnIndex maps header names to positions so files remain readable
// regardless of column order
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func column(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
