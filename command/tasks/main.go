package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sawasdee-research/gsview/store"
	"github.com/sawasdee-research/gsview/tasks"
)

const logPrefix = "tasks"

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
	viper.SetDefault("tasks.bucket", "sawasdee-labelstudio/google_streetview")
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

	results, err := fileStore.ReadDownloadResults()
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no download results at %s, run the download stage first", fileStore.DownloadResultsPath())
		}
		log.Fatalf("read download results: %s", err)
	}

	locations, err := fileStore.ReadLocations(fileStore.LocationsPath())
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no sampled locations at %s, run the sample stage first", fileStore.LocationsPath())
		}
		log.Fatalf("read locations: %s", err)
	}

	built := tasks.Build(results, locations, viper.GetString("tasks.bucket"))
	if err := tasks.Write(fileStore.TasksPath(), built); err != nil {
		log.Fatalf("write tasks: %s", err)
	}

	counts := make(map[string]int)
	for _, task := range built {
		counts[task.Data.City]++
	}
	cities := make([]string, 0, len(counts))
	for city := range counts {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"City", "Tasks"})
	for _, city := range cities {
		table.Append([]string{city, strconv.Itoa(counts[city])})
	}
	table.Render()

	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"tasks":  len(built),
		"output": fileStore.TasksPath(),
	}).Info("label studio tasks written")
}
