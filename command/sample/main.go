package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sawasdee-research/gsview/consts"
	"github.com/sawasdee-research/gsview/external/geoinfo"
	"github.com/sawasdee-research/gsview/external/overpass"
	"github.com/sawasdee-research/gsview/geo"
	"github.com/sawasdee-research/gsview/sampler"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/share/plot"
	"github.com/sawasdee-research/gsview/store"
)

const logPrefix = "sample"

func initLog() {
	logLevel, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(logLevel)
	}

	log.SetOutput(os.Stdout)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

func loadConfig(file string) {
	// Config from file
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Println("No config file. Read config from env.")
	}

	// Config from env if possible
	viper.AutomaticEnv()
	viper.SetEnvPrefix("gsview")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("data.dir", "data")
	viper.SetDefault("sample.seed", 42)
}

func main() {
	var configFile string

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	if dsn := viper.GetString("sentry.dsn"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			AttachStacktrace: true,
			Environment:      viper.GetString("sentry.environment"),
		}); err != nil {
			log.Error(err)
		}
	}

	fileStore := store.NewFileStore(viper.GetString("data.dir"))
	s := sampler.New(overpass.New(viper.GetString("overpass.url")), fileStore)

	nSamples := make(map[string]int)
	for _, key := range consts.CityKeys() {
		if n := viper.GetInt("sample.n." + key); n > 0 {
			nSamples[key] = n
		}
	}

	seed := viper.GetInt64("sample.seed")
	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"seed":   seed,
	}).Info("sampling road locations")

	locations, err := s.SampleAllCities(nSamples, seed, viper.GetBool("sample.force"))
	if err != nil {
		log.Fatalf("sampling failed: %s", err)
	}

	if apiKey := viper.GetString("maps.apikey"); apiKey != "" {
		resolveLocalities(locations, apiKey)
	}

	if err := fileStore.WriteLocations(fileStore.LocationsPath(), locations); err != nil {
		log.Fatalf("write locations: %s", err)
	}

	if err := plot.Render(fileStore.SampleMapPath(), "Sampled locations", plot.SampleMarkers(locations)); err != nil {
		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"error":  err,
		}).Error("render sample map")
	}

	printCityCounts(locations)

	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"total":  len(locations),
		"output": fileStore.LocationsPath(),
	}).Info("sampling done")
}

// resolveLocalities tags samples with their administrative locality.
// Best effort: a failed lookup leaves the field empty.
func resolveLocalities(locations []schema.Location, apiKey string) {
	client, err := geoinfo.New(apiKey)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"error":  err,
		}).Error("init geo client, skipping locality resolution")
		return
	}
	resolver := geo.NewLocalityResolver(client)

	for i := range locations {
		locality, err := resolver.Locality(locations[i])
		if err != nil {
			log.WithFields(log.Fields{
				"prefix":      logPrefix,
				"location_id": locations[i].LocationID,
				"error":       err,
			}).Warn("locality resolution failed")
			continue
		}
		locations[i].Locality = locality
	}
}

func printCityCounts(locations []schema.Location) {
	counts := make(map[string]int)
	for _, loc := range locations {
		counts[loc.City]++
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"City", "Samples"})
	for _, key := range consts.CityKeys() {
		name := consts.CityConfigs[key].Name
		if counts[name] == 0 {
			continue
		}
		table.Append([]string{name, strconv.Itoa(counts[name])})
	}
	table.Render()
}
