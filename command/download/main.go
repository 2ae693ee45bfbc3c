package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sawasdee-research/gsview/downloader"
	"github.com/sawasdee-research/gsview/external/streetview"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/store"
)

const logPrefix = "download"

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
	viper.SetDefault("streetview.ratelimit", "100ms")
	viper.SetDefault("streetview.retries", 3)
	viper.SetDefault("download.headings", "0,90,180,270")
	viper.SetDefault("download.pitch", 0)
	viper.SetDefault("download.hires", false)
	viper.SetDefault("download.zoom", streetview.DefaultPanoZoom)
}

func parseHeadings(raw string) ([]int, error) {
	var headings []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid heading %q", part)
		}
		headings = append(headings, h)
	}
	return headings, nil
}

// confirm asks before billable requests are made, unless download.yes
// is set for unattended runs.
func confirm(images int, cost float64) bool {
	if viper.GetBool("download.yes") {
		return true
	}

	fmt.Printf("About to request %d images, estimated cost $%.2f. Continue? [y/N] ", images, cost)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
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

	records, err := fileStore.ReadCoverage()
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no coverage results at %s, run the coverage stage first", fileStore.CoveragePath())
		}
		log.Fatalf("read coverage: %s", err)
	}

	covered := make([]schema.CoverageRecord, 0, len(records))
	for _, record := range records {
		if record.HasCoverage {
			covered = append(covered, record)
		}
	}
	log.WithFields(log.Fields{
		"prefix":  logPrefix,
		"covered": len(covered),
		"total":   len(records),
	}).Info("loaded coverage results")

	headings, err := parseHeadings(viper.GetString("download.headings"))
	if err != nil {
		log.Fatalf("invalid download.headings: %s", err)
	}

	rateLimit, err := time.ParseDuration(viper.GetString("streetview.ratelimit"))
	if err != nil {
		log.Fatalf("invalid streetview.ratelimit: %s", err)
	}

	hires := viper.GetBool("download.hires")
	if !hires && viper.GetString("streetview.apikey") == "" {
		log.Fatal(streetview.ErrEmptyAPIKey)
	}

	sv, err := streetview.New(viper.GetString("streetview.apikey"), streetview.Config{
		RateLimit: rateLimit,
		Retries:   viper.GetInt("streetview.retries"),
	})
	if err != nil {
		log.Fatalf("init street view client: %s", err)
	}

	d := downloader.New(sv, fileStore, headings, viper.GetInt("download.pitch"))

	var results []schema.DownloadResult
	if hires {
		withPano := 0
		for _, record := range covered {
			if record.PanoID != "" {
				withPano++
			}
		}
		if withPano == 0 {
			log.Fatalf("coverage results at %s carry no pano ids, re-run the coverage stage first", fileStore.CoveragePath())
		}

		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"zoom":   viper.GetInt("download.zoom"),
		}).Info("hi-res mode uses the free tile endpoint, no billed requests")

		results = d.DownloadBatchHires(covered, viper.GetInt("download.zoom"))
	} else {
		images, cost := d.EstimateCost(len(covered))
		log.WithFields(log.Fields{
			"prefix":        logPrefix,
			"images":        images,
			"estimated_usd": fmt.Sprintf("%.2f", cost),
		}).Info("estimated download cost")

		if !confirm(images, cost) {
			log.WithField("prefix", logPrefix).Info("download cancelled")
			return
		}

		results = d.DownloadBatch(covered)
	}

	if err := fileStore.WriteDownloadResults(results); err != nil {
		log.Fatalf("write download results: %s", err)
	}

	rows := downloader.ManifestRows(results)
	if err := fileStore.WriteManifest(rows); err != nil {
		log.Fatalf("write annotation manifest: %s", err)
	}

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	log.WithFields(log.Fields{
		"prefix":    logPrefix,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"manifest":  fileStore.ManifestPath(),
	}).Info("download done")
}
