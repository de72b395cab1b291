package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/pmulloy/kitewind/internal/api"
	"github.com/pmulloy/kitewind/internal/forecast"
	"github.com/pmulloy/kitewind/internal/ingest"
	"github.com/pmulloy/kitewind/internal/models"
	"github.com/pmulloy/kitewind/internal/store"
	"github.com/pmulloy/kitewind/internal/tide"
)

var cli struct {
	Port        string   `default:"8080" help:"HTTP listen port."`
	DB          string   `name:"db" default:"data/kitewind.db" help:"Path to the SQLite database."`
	ForecastURL string   `default:"https://api.open-meteo.com/v1" help:"Weather model API base URL."`
	TideURL     string   `default:"https://api.stormglass.io/v2/tide/extremes/point" help:"Tide extremes endpoint."`
	TideKey     string   `env:"TIDE_API_KEY" help:"Tide provider API key. Tides are simulation-only when empty."`
	Models      []string `default:"icon,gfs,ecmwf,meteofrance,gem" help:"Base models enabled for blending."`
	Spots       []string `help:"Spots to keep warm, each as name:lat,lng."`
	NoPoll      bool     `help:"Disable the background refresh loop (server only)."`
	Once        bool     `help:"Refresh the configured spots once and exit."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("kitewind"),
		kong.Description("Multi-model wind forecast aggregation with tide curves."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cache := forecast.NewCache(forecast.DefaultTTL)
	client := forecast.NewClient(cli.ForecastURL, cache)
	forecasts := forecast.NewService(cache, client, cli.Models)

	var tideClient *tide.Client
	if cli.TideKey != "" {
		tideClient = tide.NewClient(cli.TideURL, cli.TideKey)
	} else {
		log.Println("no tide API key configured, tide curves will be simulated")
	}
	tides := tide.NewService(tideClient, st)

	spots := parseSpots(cli.Spots)
	scheduler := ingest.NewScheduler(forecasts, tides, st, spots)

	if cli.Once {
		scheduler.RefreshOnce(context.Background())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoPoll && len(spots) > 0 {
		go scheduler.Run(ctx)
	}

	server := api.NewServer(forecasts, tides, cli.Port)
	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// parseSpots decodes name:lat,lng entries, skipping anything malformed.
func parseSpots(raw []string) []models.Spot {
	var spots []models.Spot
	for _, entry := range raw {
		name, coords, ok := strings.Cut(entry, ":")
		if !ok {
			log.Printf("skipping malformed spot %q", entry)
			continue
		}
		latStr, lngStr, ok := strings.Cut(coords, ",")
		if !ok {
			log.Printf("skipping malformed spot %q", entry)
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err1 != nil || err2 != nil {
			log.Printf("skipping malformed spot %q", entry)
			continue
		}
		spots = append(spots, models.Spot{Name: strings.TrimSpace(name), Lat: lat, Lng: lng})
	}
	return spots
}
