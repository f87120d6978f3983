package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/repository"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/cache"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/config"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/jobs"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/logger"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/storage"
)

type options struct {
	kind      string
	classes   string
	format    string
	outDir    string
	token     string
	scope     string
	className string
	student   string
	date      string
	title     string
	fields    string
	workers   int
	retries   int
	retain    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.kind, "kind", "roster", "what to export: roster or exams")
	flag.StringVar(&opts.classes, "classes", "", "comma separated class ids (roster)")
	flag.StringVar(&opts.format, "format", "pdf", "pdf, docx, xlsx or csv")
	flag.StringVar(&opts.outDir, "out", "./exports", "output directory")
	flag.StringVar(&opts.token, "token", os.Getenv("DASHBOARD_TOKEN"), "bearer token forwarded to the backend")
	flag.StringVar(&opts.scope, "scope", "all", "exam print scope: all, byClass or byStudent")
	flag.StringVar(&opts.className, "class-name", "", "class name for -scope byClass")
	flag.StringVar(&opts.student, "student", "", "student key for -scope byStudent")
	flag.StringVar(&opts.date, "date", "", "exam date filter (YYYY-MM-DD)")
	flag.StringVar(&opts.title, "title", "", "document title override")
	flag.StringVar(&opts.fields, "fields", "", "comma separated field keys")
	flag.IntVar(&opts.workers, "workers", 2, "concurrent roster exports")
	flag.IntVar(&opts.retries, "retries", 1, "retries per failed export")
	flag.DurationVar(&opts.retain, "retain", 0, "delete exports older than this before writing (0 keeps all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logr); err != nil {
		logr.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logr *zap.Logger) error {
	principal, err := service.NewTokenService().Principal(opts.token)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	ctx = repository.WithToken(ctx, principal.Token)

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}
	if opts.retain > 0 {
		deleted, err := store.CleanupOlderThan(opts.retain)
		if err != nil {
			return err
		}
		logr.Info("old exports removed", zap.Int("count", len(deleted)))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, logo cache limited to process memory", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.School.LogoCacheTTL, logr)
	client := repository.NewBackendClient(cfg.Backend, metrics, logr)
	exporter := service.NewExportService(service.NewAssetLoader(cfg.School, cacheSvc, logr), service.ExportConfig{
		BatchSize:   cfg.Export.BatchSize,
		CompressPDF: cfg.Export.CompressPDF,
	}, metrics, logr)

	switch opts.kind {
	case "roster":
		roster := service.NewRosterService(repository.NewClassRepository(client), exporter,
			service.NewSessionStore[*service.RosterSession]("roster", cfg.Sessions.TTL, metrics, logr), logr)
		return exportRosters(ctx, roster, store, opts, format, logr)
	case "exams":
		exams := service.NewExamResultService(repository.NewExamResultRepository(client), exporter, validator.New(), logr)
		return exportExamResults(ctx, exams, store, *principal, opts, format, logr)
	default:
		return fmt.Errorf("unknown export kind %q", opts.kind)
	}
}

func exportRosters(ctx context.Context, roster *service.RosterService, store *storage.LocalStorage, opts options, format export.Format, logr *zap.Logger) error {
	ids, err := parseIDs(opts.classes)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("-classes is required for roster exports")
	}
	fields := splitList(opts.fields)

	queue := jobs.NewQueue("roster-export", func(ctx context.Context, job jobs.Job) error {
		classID := job.Payload.(int64)
		view, err := roster.Open(ctx, classID, fields)
		if err != nil {
			return err
		}
		defer roster.Close(view.SessionID) //nolint:errcheck
		artifact, err := roster.Export(ctx, view.SessionID, format)
		if err != nil {
			return err
		}
		name, err := store.Save(artifact.Filename, artifact.Data)
		if err != nil {
			return err
		}
		logr.Info("roster exported", zap.Int64("class_id", classID), zap.String("path", store.Path(name)))
		return nil
	}, jobs.QueueConfig{Workers: opts.workers, MaxRetries: opts.retries, RetryDelay: 2 * time.Second, Logger: logr})

	queue.Start(ctx)
	for _, id := range ids {
		if err := queue.Enqueue(jobs.Job{ID: strconv.FormatInt(id, 10), Type: "roster", Payload: id}); err != nil {
			return err
		}
	}

	failed := 0
	for _, result := range queue.Drain() {
		if result.Err != nil {
			failed++
			logr.Error("roster export failed", zap.String("class_id", result.Job.ID), zap.Error(result.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d roster exports failed", failed, len(ids))
	}
	return nil
}

func exportExamResults(ctx context.Context, exams *service.ExamResultService, store *storage.LocalStorage, principal models.Principal, opts options, format export.Format, logr *zap.Logger) error {
	artifact, err := exams.Export(ctx, principal, dto.ExamResultExportRequest{
		Format:     string(format),
		Scope:      opts.scope,
		ClassName:  opts.className,
		StudentKey: opts.student,
		Date:       opts.date,
		Title:      opts.title,
		Fields:     splitList(opts.fields),
	})
	if err != nil {
		return err
	}
	name, err := store.Save(artifact.Filename, artifact.Data)
	if err != nil {
		return err
	}
	logr.Info("exam results exported", zap.String("path", store.Path(name)), zap.Int("bytes", len(artifact.Data)))
	return nil
}

func parseIDs(raw string) ([]int64, error) {
	parts := splitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid class id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
