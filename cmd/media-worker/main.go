package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/config"
	"github.com/breakhouse/breakhouse-api/internal/domain/breaks"
	"github.com/breakhouse/breakhouse-api/internal/pkg/database"
	"github.com/breakhouse/breakhouse-api/internal/pkg/logger"
	"github.com/breakhouse/breakhouse-api/internal/pkg/storage"
)

const (
	maxOriginalSide = 2000
	jpegQuality     = 85
)

var thumbSizes = []int{200, 400, 800}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting media-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer database.CloseRedis(rdb)
	}

	st := newStorage(cfg)
	repo := breaks.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional: Redis pub/sub wake-up (polling still runs)
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, rdb, wake)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(cfg.MediaPollInterval)
	defer ticker.Stop()
	lastIdleLog := time.Time{}
	idleLogEvery := 1 * time.Minute

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("media-worker stopped")
			return
		case <-wake:
			// immediate poll
		case <-ticker.C:
		}

		// Process one job at a time (single-threaded MVP)
		job, err := repo.ClaimMediaJob(ctx)
		if err != nil {
			log.Error().Err(err).Msg("DB error while claiming job")
			continue
		}
		if job == nil {
			now := time.Now()
			if lastIdleLog.IsZero() || now.Sub(lastIdleLog) >= idleLogEvery {
				log.Info().Msg("Idle: no pending break media found")
				lastIdleLog = now
			}
			continue
		}

		start := time.Now()
		log.Info().
			Str("job_id", job.ID.String()).
			Str("key", job.ObjectKey).
			Msg("Processing results media")

		width, height, err := processOne(ctx, st, job.ObjectKey)

		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", job.ID.String()).
				Msg("Processing failed")

			job.Status = breaks.MediaFailed
			job.Error = truncate(err.Error(), 2000)
			if err2 := repo.FinishMediaJob(ctx, job); err2 != nil {
				log.Error().Err(err2).Str("job_id", job.ID.String()).Msg("Failed to update job status=failed")
			}
			continue
		}

		job.Status = breaks.MediaDone
		job.Width = width
		job.Height = height
		job.Error = ""
		if err := repo.FinishMediaJob(ctx, job); err != nil {
			log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to update job status=done")
			continue
		}

		log.Info().
			Str("job_id", job.ID.String()).
			Dur("took", time.Since(start)).
			Int("width", width).
			Int("height", height).
			Msg("Processing done")
	}
}

func processOne(ctx context.Context, st storage.Storage, originalKey string) (int, int, error) {
	rc, err := st.Get(ctx, originalKey)
	if err != nil {
		return 0, 0, fmt.Errorf("download: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return 0, 0, fmt.Errorf("read: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	// Optimize original:
	// - If any side > 2000px => fit into 2000x2000
	// - Save as JPEG quality 85
	opt := img
	if max(imgWidth(img), imgHeight(img)) > maxOriginalSide {
		opt = imaging.Fit(img, maxOriginalSide, maxOriginalSide, imaging.Lanczos)
	}

	var optBuf bytes.Buffer
	if err := imaging.Encode(&optBuf, opt, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return 0, 0, fmt.Errorf("encode optimized: %w", err)
	}

	// Overwrite original as JPEG (web-optimized)
	if err := st.Put(ctx, originalKey, bytes.NewReader(optBuf.Bytes()), "image/jpeg"); err != nil {
		return 0, 0, fmt.Errorf("upload optimized: %w", err)
	}

	// Thumbnails for the break results gallery
	base := strings.TrimSuffix(originalKey, path.Ext(originalKey))

	for _, s := range thumbSizes {
		thumb := imaging.Fit(opt, s, s, imaging.Lanczos)

		var b bytes.Buffer
		if err := imaging.Encode(&b, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return 0, 0, fmt.Errorf("encode thumb %d: %w", s, err)
		}

		thumbKey := fmt.Sprintf("%s_thumb%d.jpg", base, s)
		if err := st.Put(ctx, thumbKey, bytes.NewReader(b.Bytes()), "image/jpeg"); err != nil {
			return 0, 0, fmt.Errorf("upload thumb %d: %w", s, err)
		}
	}

	return imgWidth(opt), imgHeight(opt), nil
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	// Channel name can be anything; polling is still the main mechanism.
	sub := rdb.Subscribe(ctx, "breaks:media")
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			// non-blocking wake-up
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}

func newStorage(cfg *config.Config) storage.Storage {
	if cfg.StorageBackend == "r2" {
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 storage")
		}
		return r2
	}

	local, err := storage.NewLocalStorage(cfg.LocalStoragePath, cfg.LocalStorageURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create local storage")
	}
	return local
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func imgWidth(i image.Image) int {
	return i.Bounds().Dx()
}

func imgHeight(i image.Image) int {
	return i.Bounds().Dy()
}
