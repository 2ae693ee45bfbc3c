package store

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ImageFilename - canonical image name for a location, heading and
// pitch. The format is shared with the annotation platform, so changing
// it invalidates existing task manifests.
func ImageFilename(locationID string, heading, pitch int) string {
	return fmt.Sprintf("%s_h%03d_p%+03d.jpg", locationID, heading, pitch)
}

// ImagePath - absolute path of an image inside the images directory
func (s *FileStore) ImagePath(filename string) string {
	return filepath.Join(s.ImagesDir(), filename)
}

// HasImage reports whether an image has already been downloaded
func (s *FileStore) HasImage(filename string) bool {
	_, err := os.Stat(s.ImagePath(filename))
	return err == nil
}

// SaveImage persists a downloaded image
func (s *FileStore) SaveImage(filename string, data []byte) error {
	if err := os.MkdirAll(s.ImagesDir(), 0755); err != nil {
		return errors.Wrap(err, "create images directory")
	}
	return errors.Wrapf(ioutil.WriteFile(s.ImagePath(filename), data, 0644), "write %s", filename)
}
