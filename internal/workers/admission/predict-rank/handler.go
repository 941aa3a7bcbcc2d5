// internal/workers/admission/predict-rank/handler.go
package predictrank

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "predict-rank"

	// Reserved categories compete in a compressed rank pool.
	reservedCategoryFactor = 0.7
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if !input.ExamType.Valid() {
		return nil, errors.NewInvalidInput("unsupported exam type", fmt.Sprintf("examType=%q", input.ExamType))
	}
	if !input.Category.Valid() {
		return nil, errors.NewInvalidInput("unknown category", fmt.Sprintf("category=%q", input.Category))
	}
	if input.Score == nil {
		return nil, errors.NewInvalidInput("score is required", "")
	}

	score := *input.Score
	maxScore := input.ExamType.MaxScore()
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > maxScore {
		return nil, errors.NewInvalidInput("score out of range",
			fmt.Sprintf("score=%v maxScore=%v", score, maxScore))
	}

	percentile := score / maxScore * 100
	raw := input.ExamType.RankPool() * (1 - percentile/100)
	if input.Category.Reserved() {
		raw *= reservedCategoryFactor
	}

	predicted := clampRank(int(math.Round(raw)))

	return &Output{
		ExamType:      input.ExamType,
		Score:         score,
		Category:      input.Category,
		PredictedRank: predicted,
		RankRange: RankRange{
			Min: clampRank(int(math.Round(float64(predicted) * 0.9))),
			Max: clampRank(int(math.Round(float64(predicted) * 1.1))),
		},
	}, nil
}

func clampRank(rank int) int {
	if rank < 1 {
		return 1
	}
	return rank
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
		code = string(errors.ErrCodeInvalidInput)
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
