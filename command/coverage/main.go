package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sawasdee-research/gsview/downloader"
	"github.com/sawasdee-research/gsview/external/streetview"
	"github.com/sawasdee-research/gsview/store"
)

const logPrefix = "coverage"

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

	locations, err := fileStore.ReadLocations(fileStore.LocationsPath())
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no sampled locations at %s, run the sample stage first", fileStore.LocationsPath())
		}
		log.Fatalf("read locations: %s", err)
	}

	rateLimit, err := time.ParseDuration(viper.GetString("streetview.ratelimit"))
	if err != nil {
		log.Fatalf("invalid streetview.ratelimit: %s", err)
	}

	if viper.GetString("streetview.apikey") == "" {
		log.Fatal(streetview.ErrEmptyAPIKey)
	}

	sv, err := streetview.New(viper.GetString("streetview.apikey"), streetview.Config{
		RateLimit: rateLimit,
		Retries:   viper.GetInt("streetview.retries"),
	})
	if err != nil {
		log.Fatalf("init street view client: %s", err)
	}

	d := downloader.New(sv, fileStore, nil, 0)
	records := d.CheckCoverageBatch(locations)

	if err := fileStore.WriteCoverage(records); err != nil {
		log.Fatalf("write coverage: %s", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"City", "Covered", "Total", "Percent"})
	for _, stat := range downloader.CoverageStats(records) {
		table.Append([]string{
			stat.City,
			strconv.Itoa(stat.Covered),
			strconv.Itoa(stat.Total),
			fmt.Sprintf("%.1f%%", stat.Percent()),
		})
	}
	table.Render()

	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"output": fileStore.CoveragePath(),
	}).Info("coverage check done")
}
