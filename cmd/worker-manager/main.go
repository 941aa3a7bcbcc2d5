// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/common/config"
	"counseling-workers/internal/common/database"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/observability"
	"counseling-workers/internal/store"
	"counseling-workers/pkg/registry"

	// Admission Workers (3)
	mc "counseling-workers/internal/workers/admission/match-colleges"
	pr "counseling-workers/internal/workers/admission/predict-rank"
	sm "counseling-workers/internal/workers/admission/seat-matrix"

	// Commerce Workers (3)
	ps "counseling-workers/internal/workers/commerce/price-subscription"
	sr "counseling-workers/internal/workers/commerce/settle-referral"
	us "counseling-workers/internal/workers/commerce/upgrade-subscription"

	// Communication Workers (1)
	sn "counseling-workers/internal/workers/communication/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Catalog ---
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Catalog.Path))
	}
	zapLog.Info("Catalog loaded", zap.Int("institutions", cat.Len()))

	// --- Load Task Registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("task registry load failed", zap.Error(err), zap.String("path", cfg.Registry.Path))
	}
	zapLog.Info("Task registry loaded", zap.Int("tasks", len(reg.Tasks)))

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared Store ---
	cacheTTL := time.Duration(cfg.Commerce.AccountCacheTTL) * time.Second
	pgStore := store.NewPostgresStore(pg.DB, redis.Client, cacheTTL, log)

	// --- START: Register ALL 7 Workers ---

	// --- 1. Admission Workers (3) ---
	if cfg.Workers[pr.TaskType].Enabled {
		handler := pr.NewHandler(
			&pr.Config{
				Timeout: time.Duration(cfg.Workers[pr.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, pr.TaskType, cfg.Workers[pr.TaskType], reg, handler.Handle, zapLog)
	}

	if cfg.Workers[mc.TaskType].Enabled {
		handler := mc.NewHandler(
			&mc.Config{
				Timeout: time.Duration(cfg.Workers[mc.TaskType].Timeout) * time.Millisecond,
			},
			cat, log,
		)
		startWorker(zeebeClient, mc.TaskType, cfg.Workers[mc.TaskType], reg, handler.Handle, zapLog)
	}

	if cfg.Workers[sm.TaskType].Enabled {
		handler := sm.NewHandler(
			&sm.Config{
				Timeout: time.Duration(cfg.Workers[sm.TaskType].Timeout) * time.Millisecond,
			},
			cat, log,
		)
		startWorker(zeebeClient, sm.TaskType, cfg.Workers[sm.TaskType], reg, handler.Handle, zapLog)
	}

	// --- 2. Commerce Workers (3) ---
	if cfg.Workers[ps.TaskType].Enabled {
		handler := ps.NewHandler(
			&ps.Config{
				Timeout: time.Duration(cfg.Workers[ps.TaskType].Timeout) * time.Millisecond,
			},
			pgStore, pgStore, log,
		)
		startWorker(zeebeClient, ps.TaskType, cfg.Workers[ps.TaskType], reg, handler.Handle, zapLog)
	}

	if cfg.Workers[sr.TaskType].Enabled {
		handler := sr.NewHandler(
			&sr.Config{
				Timeout: time.Duration(cfg.Workers[sr.TaskType].Timeout) * time.Millisecond,
			},
			pgStore, pgStore, log,
		)
		startWorker(zeebeClient, sr.TaskType, cfg.Workers[sr.TaskType], reg, handler.Handle, zapLog)
	}

	if cfg.Workers[us.TaskType].Enabled {
		handler := us.NewHandler(
			&us.Config{
				Timeout: time.Duration(cfg.Workers[us.TaskType].Timeout) * time.Millisecond,
			},
			pgStore, log,
		)
		startWorker(zeebeClient, us.TaskType, cfg.Workers[us.TaskType], reg, handler.Handle, zapLog)
	}

	// --- 3. Communication Workers (1) ---
	if cfg.Workers[sn.TaskType].Enabled {
		handler, err := sn.NewHandler(
			&sn.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				SMSSenderID:  cfg.Notifications.SMS.SenderID,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      time.Duration(cfg.Workers[sn.TaskType].Timeout) * time.Millisecond,
			},
			pgStore, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], reg, handler.Handle, zapLog)
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, reg *registry.TaskRegistry, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(withSchemaValidation(taskType, reg, handlerFunc, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

// withSchemaValidation rejects jobs whose variables fail the registry input
// schema before the handler runs. Tasks absent from the registry pass through.
func withSchemaValidation(taskType string, reg *registry.TaskRegistry, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) func(worker.JobClient, entities.Job) {
	task, ok := reg.Task(taskType)
	if !ok {
		log.Warn("task missing from registry, input validation disabled", zap.String("taskType", taskType))
		return handlerFunc
	}

	return func(client worker.JobClient, job entities.Job) {
		if err := task.ValidateInput([]byte(job.Variables)); err != nil {
			log.Error("job rejected by input schema",
				zap.String("taskType", taskType),
				zap.Int64("jobKey", job.Key),
				zap.Error(err),
			)
			if _, sendErr := client.NewThrowErrorCommand().
				JobKey(job.Key).
				ErrorCode("INVALID_INPUT").
				ErrorMessage(err.Error()).
				Send(context.Background()); sendErr != nil {
				log.Error("failed to throw error", zap.Error(sendErr))
			}
			return
		}
		handlerFunc(client, job)
	}
}
