package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sawasdee-research/gsview/analysis"
	"github.com/sawasdee-research/gsview/schema"
	"github.com/sawasdee-research/gsview/share/plot"
	"github.com/sawasdee-research/gsview/store"
)

const logPrefix = "analyze"

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

	exportPath := viper.GetString("analysis.export")
	if exportPath == "" {
		exportPath = filepath.Join(viper.GetString("data.dir"), "annotations_export.csv")
	}

	records, dropped, err := fileStore.ReadAnnotations(exportPath)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no annotation export at %s, export it from label studio first", exportPath)
		}
		log.Fatalf("read annotations: %s", err)
	}
	if dropped > 0 {
		log.WithFields(log.Fields{
			"prefix":  logPrefix,
			"dropped": dropped,
		}).Warn("malformed annotation rows dropped")
	}

	locations, err := fileStore.ReadLocations(fileStore.LocationsPath())
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("no sampled locations at %s, run the sample stage first", fileStore.LocationsPath())
		}
		log.Fatalf("read locations: %s", err)
	}

	joined, orphans := analysis.Join(records, locations)
	if orphans > 0 {
		log.WithFields(log.Fields{
			"prefix":  logPrefix,
			"orphans": orphans,
		}).Warn("annotations without sampled locations dropped")
	}
	if len(joined) == 0 {
		log.Fatal("no annotations left after joining with sampled locations")
	}

	byCity := analysis.SummarizeByCity(joined)
	byRoadType := analysis.SummarizeByRoadType(joined)

	if err := fileStore.WriteSummaries(fileStore.CitySummaryPath(), byCity); err != nil {
		log.Fatalf("write city summary: %s", err)
	}
	if err := fileStore.WriteSummaries(fileStore.RoadTypeSummaryPath(), byRoadType); err != nil {
		log.Fatalf("write road type summary: %s", err)
	}

	fmt.Println("By city:")
	printSummaries(byCity)
	fmt.Println("By road type:")
	printSummaries(byRoadType)

	renderMetricMap(fileStore, joined)

	log.WithFields(log.Fields{
		"prefix": logPrefix,
		"images": len(joined),
		"output": fileStore.AnalysisDir(),
	}).Info("analysis done")
}

func printSummaries(summaries []schema.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Group", "Images", "Women", "Men", "Prop. Women", "Sex Ratio",
		"Potholes", "Litter", "Footpath", "Lane Markings",
	})

	for _, s := range summaries {
		sexRatio := "n/a"
		if s.SexRatioDefined {
			sexRatio = fmt.Sprintf("%.3f", s.SexRatio)
		}
		table.Append([]string{
			s.Group,
			strconv.Itoa(s.Images),
			strconv.Itoa(s.Women),
			strconv.Itoa(s.Men),
			fmt.Sprintf("%.3f", s.ProportionWomen),
			sexRatio,
			strconv.Itoa(s.Potholes),
			strconv.Itoa(s.Litter),
			fmt.Sprintf("%.1f%%", s.FootpathRate*100),
			fmt.Sprintf("%.1f%%", s.LaneMarkingRate*100),
		})
	}
	table.Render()
}

// renderMetricMap colors each sampled location by the share of women
// observed there.
func renderMetricMap(fileStore *store.FileStore, joined []analysis.Annotated) {
	metrics := analysis.PerLocation(joined)

	markers := make([]plot.Marker, 0, len(metrics))
	for _, m := range metrics {
		markers = append(markers, plot.Marker{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			Color:     plot.ColorScale(m.ProportionWomen),
			Popup: fmt.Sprintf("%s (%s): %.2f women share over %d images",
				m.Location.LocationID, m.Location.City, m.ProportionWomen, m.Images),
		})
	}

	if err := plot.Render(fileStore.MetricMapPath(), "Proportion of women per location", markers); err != nil {
		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"error":  err,
		}).Error("render metric map")
	}
}
