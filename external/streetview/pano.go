package streetview

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	// The tile endpoint serves raw panorama tiles and takes no API
	// key. A full panorama at zoom z is 2^z by max(1, 2^(z-1)) tiles
	// of 512px, so zoom 3 stitches to 4096x2048.
	defaultPanoURL = "https://streetviewpixels-pa.googleapis.com/v1/tile"

	panoTileSize = 512
	maxPanoZoom  = 5

	// DefaultPanoZoom - stitched size that comfortably covers a 90
	// degree crop at annotation resolution
	DefaultPanoZoom = 3
)

var ErrEmptyPanoID = fmt.Errorf("panorama id is not set")

func panoGrid(zoom int) (cols, rows int) {
	cols = 1 << uint(zoom)
	rows = cols / 2
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// Panorama fetches and stitches every tile of the identified panorama
// into one equirectangular image. Any failed tile fails the panorama:
// a partially stitched image would silently corrupt the crops.
func (s *streetView) Panorama(panoID string, zoom int) (image.Image, error) {
	if panoID == "" {
		return nil, ErrEmptyPanoID
	}
	if zoom < 0 {
		zoom = 0
	}
	if zoom > maxPanoZoom {
		zoom = maxPanoZoom
	}

	cols, rows := panoGrid(zoom)
	log.WithFields(log.Fields{
		"prefix":  logPrefix,
		"pano_id": panoID,
		"zoom":    zoom,
		"tiles":   cols * rows,
	}).Debug("fetching panorama")

	canvas := image.NewRGBA(image.Rect(0, 0, cols*panoTileSize, rows*panoTileSize))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			tile, err := s.panoTile(panoID, x, y, zoom)
			if err != nil {
				return nil, fmt.Errorf("panorama %s tile %d,%d: %s", panoID, x, y, err)
			}
			draw.Draw(canvas,
				image.Rect(x*panoTileSize, y*panoTileSize, (x+1)*panoTileSize, (y+1)*panoTileSize),
				tile, tile.Bounds().Min, draw.Src)
		}
	}

	return canvas, nil
}

func (s *streetView) panoTile(panoID string, x, y, zoom int) (image.Image, error) {
	params := url.Values{}
	params.Set("cb_client", "maps_sv.tactile")
	params.Set("panoid", panoID)
	params.Set("x", strconv.Itoa(x))
	params.Set("y", strconv.Itoa(y))
	params.Set("zoom", strconv.Itoa(zoom))

	status, _, body, err := s.get(s.panoURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("tile fetch returned status %d", status)
	}

	tile, _, err := image.Decode(bytes.NewReader(body))
	return tile, err
}

// CropPanorama cuts a heading/pitch/fov view out of an equirectangular
// panorama. Heading 0 is the left edge of the stitched image; crops
// crossing the seam wrap around.
func CropPanorama(pano image.Image, heading, pitch, fov int) image.Image {
	b := pano.Bounds()
	w, h := b.Dx(), b.Dy()

	centerX := int(float64(heading)/360*float64(w)) % w
	centerY := h/2 - int(float64(pitch)/180*float64(h))

	cropW := int(float64(fov) / 360 * float64(w))
	top := centerY - cropW/2
	if top < 0 {
		top = 0
	}
	bottom := centerY + cropW/2
	if bottom > h {
		bottom = h
	}

	out := image.NewRGBA(image.Rect(0, 0, cropW, bottom-top))
	left := centerX - cropW/2
	for x := 0; x < cropW; x++ {
		srcX := ((left+x)%w + w) % w
		for y := top; y < bottom; y++ {
			out.Set(x, y-top, pano.At(b.Min.X+srcX, b.Min.Y+y))
		}
	}

	return out
}
