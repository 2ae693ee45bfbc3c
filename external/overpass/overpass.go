package overpass

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sawasdee-research/gsview/geo"
	"github.com/sawasdee-research/gsview/schema"
)

const (
	logPrefix  = "overpass"
	defaultURL = "https://overpass-api.de/api/interpreter"

	// Overpass area ids are relation ids offset by this constant.
	areaIDOffset = 3600000000

	defaultTimeout = 300 * time.Second
	queryTimeoutS  = 180
)

// Road - one OSM way with its node coordinates joined in
type Road struct {
	OSMID   int64
	Name    string
	Highway string
	Coords  []geo.Point
}

// Overpass - interface to fetch road networks from the Overpass API
type Overpass interface {
	QueryRoads(relationID int64, bbox *schema.BBox) ([]Road, error)
}

type overpass struct {
	url        string
	httpClient *http.Client
}

type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

const highwayFilter = "primary|secondary|tertiary|residential|unclassified"

func (o overpass) QueryRoads(relationID int64, bbox *schema.BBox) ([]Road, error) {
	var query string
	if bbox != nil {
		bboxStr := fmt.Sprintf("%g,%g,%g,%g", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
		query = fmt.Sprintf(`[out:json][timeout:%d];
(
  way["highway"~"^(%s)$"](%s);
);
out body;
>;
out skel qt;`, queryTimeoutS, highwayFilter, bboxStr)
	} else {
		query = fmt.Sprintf(`[out:json][timeout:%d];
area(id:%d)->.searchArea;
(
  way["highway"~"^(%s)$"](area.searchArea);
);
out body;
>;
out skel qt;`, queryTimeoutS, areaIDOffset+relationID, highwayFilter)
	}

	log.WithFields(log.Fields{
		"prefix":      logPrefix,
		"relation_id": relationID,
	}).Info("fetching roads from overpass")

	resp, err := o.httpClient.PostForm(o.url, url.Values{"data": {query}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	nodes := make(map[int64]geo.Point)
	for _, el := range result.Elements {
		if el.Type == "node" {
			nodes[el.ID] = geo.Point{Latitude: el.Lat, Longitude: el.Lon}
		}
	}

	var roads []Road
	for _, el := range result.Elements {
		if el.Type != "way" || len(el.Nodes) < 2 {
			continue
		}
		coords := make([]geo.Point, 0, len(el.Nodes))
		for _, id := range el.Nodes {
			if p, ok := nodes[id]; ok {
				coords = append(coords, p)
			}
		}
		if len(coords) < 2 {
			continue
		}
		roads = append(roads, Road{
			OSMID:   el.ID,
			Name:    el.Tags["name"],
			Highway: el.Tags["highway"],
			Coords:  coords,
		})
	}

	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"roads":  len(roads),
	}).Info("fetched road segments")

	return roads, nil
}

// New - new Overpass interface. An empty url falls back to the public
// overpass-api.de instance.
func New(endpoint string) Overpass {
	u := defaultURL
	if endpoint != "" {
		u = endpoint
	}

	return &overpass{
		url: u,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}
