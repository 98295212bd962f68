package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jtdct/sonora/internal/catalog"
	"github.com/jtdct/sonora/internal/config"
	"github.com/jtdct/sonora/internal/cover"
	"github.com/jtdct/sonora/internal/delivery"
	"github.com/jtdct/sonora/internal/mbfeatures"
	"github.com/jtdct/sonora/internal/scan"
	"github.com/jtdct/sonora/internal/similarity"
	"github.com/jtdct/sonora/internal/version"
)

const bannerArt = `
   _____
  / ____|
 | (___   ___  _ __   ___  _ __ __ _
  \___ \ / _ \| '_ \ / _ \| '__/ _' |
  ____) | (_) | | | | (_) | | | (_| |
 |_____/ \___/|_| |_|\___/|_|  \__,_|
`

func main() {
	v := version.Load()
	fmt.Println(bannerArt)
	fmt.Printf("  Self-hosted music server\n")
	fmt.Printf("  Version %s\n\n", v.Version)

	cfg := config.Load()

	db, err := catalog.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := catalog.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	store := catalog.NewStore(db)

	coverResolver := cover.NewResolver(store, cover.Config{
		MaxCacheEntries:  cfg.CoverCacheSize,
		MaxFileSizeBytes: cfg.CoverMaxFileSize,
		JPEGQuality:      cfg.CoverJPEGQuality,
		ImageExtensions:  cfg.CoverImageExtensions,
		PreferredNames:   cfg.CoverPreferredNames,
		DefaultCoverPath: cfg.CoverDefaultPath,
	})

	var featuresClient *mbfeatures.Client
	if cfg.FeatureServiceEnabled() {
		featuresClient = mbfeatures.NewClient(mbfeatures.Config{
			BaseURL: cfg.FeatureServiceBaseURL,
			Timeout: time.Duration(cfg.FeatureServiceTimeout) * time.Second,
		})
		log.Println("feature service client configured")
	} else {
		log.Println("feature service disabled: no base URL configured")
	}

	similarityEngine := similarity.NewEngine(store, cfg.SimilarityCacheDir, cfg.SimilarityTrainIterations)

	ctx := context.Background()
	if err := similarityEngine.LoadCache(ctx); err != nil {
		log.Printf("similarity: cache load failed, starting cold: %v", err)
	}

	scanEngine := scan.NewEngine(store, cfg.FFprobePath, cfg.ScanExclusionMarker, featuresClient, scan.Hooks{
		OnProgress: func(p scan.Progress) {
			log.Printf("scan: %s added=%d updated=%d removed=%d errors=%d",
				p.RootPath, p.Stats.Added, p.Stats.Updated, p.Stats.Removed, p.Stats.ScanErrors)
		},
		OnComplete: func(changed bool) {
			if !changed {
				return
			}
			log.Println("scan: catalog changed, flushing cover cache and retraining similarity")
			coverResolver.FlushCache()
			similarityEngine.InvalidateCache()
			go func() {
				built, err := similarityEngine.Retrain(context.Background(), nil, func() bool { return false })
				if err != nil {
					log.Printf("similarity: retrain failed: %v", err)
					return
				}
				log.Printf("similarity: retrain complete, built=%v", built)
			}()
		},
	})
	if err := scanEngine.Start(ctx); err != nil {
		log.Fatalf("Failed to start scan engine: %v", err)
	}
	defer scanEngine.Close()

	supervisor := delivery.New(store, coverResolver, similarityEngine, delivery.Config{
		FFmpegPath:            cfg.FFmpegPath,
		MaxInFlightTranscodes: cfg.MaxTranscodeSessionsPerUser * 8,
	})
	_ = supervisor

	log.Println("sonora: core subsystems ready")
	select {}
}
