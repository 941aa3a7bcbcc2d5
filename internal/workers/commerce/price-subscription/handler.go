// internal/workers/commerce/price-subscription/handler.go
package pricesubscription

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
	TaskType = "price-subscription"

	// Referee discount applied when the supplied referral code resolves.
	referralDiscountRate = 0.01
)

type Handler struct {
	config   *Config
	accounts store.AccountDirectory
	records  store.RecordStore
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, accounts store.AccountDirectory, records store.RecordStore, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		accounts: accounts,
		records:  records,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
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
	if !input.Plan.Valid() {
		return nil, errors.NewInvalidInput("invalid subscription plan", fmt.Sprintf("plan=%q", input.Plan))
	}

	if _, err := h.accounts.GetAccount(ctx, input.AccountID); err != nil {
		return nil, err
	}

	price := input.Plan.Price()
	discountApplied := false

	// An unresolvable code is not an error, it simply yields no discount.
	if input.ReferralCode != "" {
		if _, err := h.accounts.ResolveReferralCode(ctx, input.ReferralCode); err == nil {
			price = int(math.Round(float64(price) * (1 - referralDiscountRate)))
			discountApplied = true
			metrics.ReferralDiscountsGranted.WithLabelValues("referee").Inc()
		} else if !errors.Is(err, errors.ErrCodeNotFound) {
			return nil, err
		}
	}

	now := h.now().UTC()
	sub := &models.SubscriptionRecord{
		ID:              uuid.New().String(),
		AccountID:       input.AccountID,
		Plan:            input.Plan,
		Price:           price,
		DiscountApplied: discountApplied,
		ReferralCode:    input.ReferralCode,
		Status:          models.SubscriptionActive,
		StartDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.records.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	h.logger.Info("subscription priced", map[string]interface{}{
		"subscriptionId":  sub.ID,
		"plan":            string(input.Plan),
		"price":           price,
		"discountApplied": discountApplied,
	})

	return &Output{
		SubscriptionID:  sub.ID,
		Plan:            input.Plan,
		Price:           price,
		DiscountApplied: discountApplied,
		Features:        input.Plan.Features(),
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
