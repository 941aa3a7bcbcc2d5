// internal/workers/commerce/upgrade-subscription/handler.go
package upgradesubscription

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/metrics"
	"counseling-workers/internal/models"
	"counseling-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "upgrade-subscription"

	// Proration assumes a fixed one-year billing period.
	subscriptionPeriodDays = 365
)

type Handler struct {
	config  *Config
	records store.RecordStore
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, records store.RecordStore, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		records: records,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:     time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidInput("malformed job variables", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AccountID == "" {
		return nil, errors.NewInvalidInput("accountId is required", "")
	}
	if !input.NewPlan.Valid() {
		return nil, errors.NewInvalidInput("invalid subscription plan", fmt.Sprintf("newPlan=%q", input.NewPlan))
	}

	current, err := h.records.ActiveSubscription(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	// Proration works off plan base prices; a referral discount on the
	// current record does not change the value of the unused period.
	currentPrice := current.Plan.Price()
	newPrice := input.NewPlan.Price()
	if newPrice <= currentPrice {
		return nil, errors.NewInvalidOperation("new plan must be a strict upgrade",
			fmt.Sprintf("currentPlan=%s newPlan=%s", current.Plan, input.NewPlan))
	}

	now := h.now().UTC()
	daysPassed := int(math.Floor(now.Sub(current.StartDate).Hours() / 24))
	remainingDays := subscriptionPeriodDays - daysPassed
	remainingValue := float64(currentPrice) / subscriptionPeriodDays * float64(remainingDays)
	upgradeCost := int(math.Round(float64(newPrice) - remainingValue))

	if err := h.records.DeactivateSubscription(ctx, current.ID); err != nil {
		return nil, err
	}

	next := &models.SubscriptionRecord{
		ID:                     uuid.New().String(),
		AccountID:              input.AccountID,
		Plan:                   input.NewPlan,
		Price:                  upgradeCost,
		Status:                 models.SubscriptionActive,
		StartDate:              now,
		PreviousSubscriptionID: current.ID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := h.records.CreateSubscription(ctx, next); err != nil {
		return nil, err
	}

	h.logger.Info("subscription upgraded", map[string]interface{}{
		"accountId":      input.AccountID,
		"from":           string(current.Plan),
		"to":             string(input.NewPlan),
		"subscriptionId": next.ID,
		"upgradeCost":    upgradeCost,
	})

	return &Output{
		SubscriptionID: next.ID,
		Plan:           input.NewPlan,
		UpgradeCost:    upgradeCost,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := string(errors.CodeOf(err))
	if code == "" {
		code = string(errors.ErrCodeIndeterminate)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": code,
		"error":     err.Error(),
	})

	if _, sendErr := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(code).
		ErrorMessage(err.Error()).
		Send(context.Background()); sendErr != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": sendErr.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
