package plot

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sawasdee-research/gsview/consts"
	"github.com/sawasdee-research/gsview/schema"
)

const (
	defaultZoom  = 10
	defaultColor = "#999999"
)

// Marker - one circle marker on a rendered map
type Marker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Color     string  `json:"color"`
	Popup     string  `json:"popup"`
}

// SampleMarkers - sampled locations colored by city
func SampleMarkers(locations []schema.Location) []Marker {
	markers := make([]Marker, 0, len(locations))
	for _, loc := range locations {
		color, ok := consts.CityColors[loc.City]
		if !ok {
			color = defaultColor
		}
		markers = append(markers, Marker{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Color:     color,
			Popup:     fmt.Sprintf("%s: (%.4f, %.4f)", loc.City, loc.Latitude, loc.Longitude),
		})
	}
	return markers
}

// ColorScale maps a 0..1 value onto a red-to-green ramp
func ColorScale(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	// #d73027 at 0, #1a9850 at 1
	r := int(0xd7 + v*(0x1a-0xd7))
	g := int(0x30 + v*(0x98-0x30))
	b := int(0x27 + v*(0x50-0x27))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.6.0/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.6.0/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], {{.Zoom}});
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var markers = {{.Markers}};
markers.forEach(function (m) {
  L.circleMarker([m.lat, m.lng], {
    radius: 3,
    color: m.color,
    fillColor: m.color,
    fillOpacity: 0.7
  }).bindPopup(m.popup).addTo(map);
});
</script>
</body>
</html>
`))

type mapData struct {
	Title     string
	CenterLat float64
	CenterLng float64
	Zoom      int
	Markers   template.JS
}

// Render writes an interactive map centered on the marker centroid
func Render(path, title string, markers []Marker) error {
	if len(markers) == 0 {
		return errors.New("no markers to render")
	}

	var sumLat, sumLng float64
	for _, m := range markers {
		sumLat += m.Latitude
		sumLng += m.Longitude
	}

	encoded, err := json.Marshal(markers)
	if err != nil {
		return errors.Wrap(err, "marshal markers")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	return errors.Wrapf(mapTemplate.Execute(f, mapData{
		Title:     title,
		CenterLat: sumLat / float64(len(markers)),
		CenterLng: sumLng / float64(len(markers)),
		Zoom:      defaultZoom,
		Markers:   template.JS(encoded),
	}), "render %s", path)
}
