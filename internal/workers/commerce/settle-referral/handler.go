// internal/workers/commerce/settle-referral/handler.go
package settlereferral

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
	TaskType = "settle-referral"

	referrerDiscountRate = 0.10
	refereeDiscountRate  = 0.01
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
	if input.ReferrerCode == "" || input.RefereeAccountID == "" || input.SubscriptionID == "" {
		return nil, errors.NewInvalidInput("referrerCode, refereeId and subscriptionId are required",
			fmt.Sprintf("referrerCode=%q refereeId=%q subscriptionId=%q",
				input.ReferrerCode, input.RefereeAccountID, input.SubscriptionID))
	}

	if _, err := h.accounts.GetAccount(ctx, input.RefereeAccountID); err != nil {
		return nil, err
	}
	sub, err := h.records.GetSubscription(ctx, input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	referrer, err := h.accounts.ResolveReferralCode(ctx, input.ReferrerCode)
	if err != nil {
		return nil, err
	}

	if referrer.ID == input.RefereeAccountID {
		return nil, errors.NewInvalidOperation("self-referral is not allowed",
			fmt.Sprintf("accountId=%s", referrer.ID))
	}

	// Settled immediately: the subscription already exists at call time,
	// so there is no pending phase to wait out.
	now := h.now().UTC()
	ref := &models.ReferralRecord{
		ID:               uuid.New().String(),
		ReferrerID:       referrer.ID,
		RefereeID:        input.RefereeAccountID,
		ReferrerCode:     input.ReferrerCode,
		SubscriptionID:   input.SubscriptionID,
		ReferrerDiscount: int(math.Round(float64(sub.Price) * referrerDiscountRate)),
		RefereeDiscount:  int(math.Round(float64(sub.Price) * refereeDiscountRate)),
		Status:           models.ReferralCompleted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// The store's uniqueness constraint is the arbiter for concurrent
	// settlements of the same pair; a duplicate comes back as Conflict.
	if err := h.records.CreateReferral(ctx, ref); err != nil {
		return nil, err
	}

	if err := h.accounts.SetReferredBy(ctx, input.RefereeAccountID, referrer.ID); err != nil {
		// The referral record is already durable; losing the back-link is
		// recoverable, failing the settlement here would not be.
		h.logger.Warn("failed to link referee to referrer", map[string]interface{}{
			"refereeId":  input.RefereeAccountID,
			"referrerId": referrer.ID,
			"error":      err.Error(),
		})
	}

	metrics.ReferralDiscountsGranted.WithLabelValues("referrer").Inc()
	metrics.ReferralDiscountsGranted.WithLabelValues("referee").Inc()

	h.logger.Info("referral settled", map[string]interface{}{
		"referralId":       ref.ID,
		"referrerId":       referrer.ID,
		"refereeId":        input.RefereeAccountID,
		"referrerDiscount": ref.ReferrerDiscount,
		"refereeDiscount":  ref.RefereeDiscount,
	})

	return &Output{
		ReferralID:       ref.ID,
		ReferrerDiscount: ref.ReferrerDiscount,
		RefereeDiscount:  ref.RefereeDiscount,
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
