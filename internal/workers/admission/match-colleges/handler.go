// internal/workers/admission/match-colleges/handler.go
package matchcolleges

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "match-colleges"

var chanceOrder = map[ChanceTier]int{
	ChanceHigh:   0,
	ChanceMedium: 1,
	ChanceLow:    2,
}

type Handler struct {
	config  *Config
	catalog *catalog.Catalog
	logger  logger.Logger
}

func NewHandler(config *Config, cat *catalog.Catalog, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: cat,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	metrics.EligibleOptionsReturned.WithLabelValues(string(input.ExamType)).Observe(float64(output.Total))
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if !input.ExamType.Valid() {
		return nil, errors.NewInvalidInput("unsupported exam type", fmt.Sprintf("examType=%q", input.ExamType))
	}
	if !input.Category.Valid() {
		return nil, errors.NewInvalidInput("unknown category", fmt.Sprintf("category=%q", input.Category))
	}
	if input.Rank <= 0 {
		return nil, errors.NewInvalidInput("rank must be a positive integer", fmt.Sprintf("rank=%d", input.Rank))
	}

	options := h.eligibleOptions(input)
	h.orderOptions(options, input.Preferences)

	return &Output{
		ExamType: input.ExamType,
		Rank:     input.Rank,
		Category: input.Category,
		Options:  options,
		Total:    len(options),
	}, nil
}

// eligibleOptions scans the exam's catalog partition in catalog order and
// keeps every program whose cutoff admits the rank. An empty result is a
// valid outcome, not an error.
func (h *Handler) eligibleOptions(input *Input) []Option {
	options := []Option{}
	for _, inst := range h.catalog.Partition(input.ExamType) {
		for _, prog := range inst.Programs {
			cutoff, ok := prog.Cutoff(input.Category)
			if !ok || input.Rank > cutoff {
				continue
			}
			options = append(options, Option{
				Institution:     inst.Name,
				InstitutionCode: inst.Code,
				Program:         prog.Name,
				CutoffRank:      cutoff,
				ChanceTier:      classifyChance(input.Rank, cutoff),
			})
		}
	}
	return options
}

// orderOptions sorts by chance tier, then applies each preference as a
// stable partition. The program pass runs last, so a program preference
// dominates the final order.
func (h *Handler) orderOptions(options []Option, prefs *Preferences) {
	sort.SliceStable(options, func(i, j int) bool {
		return chanceOrder[options[i].ChanceTier] < chanceOrder[options[j].ChanceTier]
	})

	if prefs == nil {
		return
	}
	if prefs.InstitutionTier != "" {
		tiers := h.tiersByCode()
		stablePartition(options, func(o Option) bool {
			return tiers[o.InstitutionCode] == prefs.InstitutionTier
		})
	}
	if prefs.Program != "" {
		stablePartition(options, func(o Option) bool {
			return o.Program == prefs.Program
		})
	}
}

func (h *Handler) tiersByCode() map[string]string {
	tiers := make(map[string]string, h.catalog.Len())
	for _, inst := range h.catalog.Institutions() {
		tiers[inst.Code] = inst.Tier
	}
	return tiers
}

// stablePartition moves options matched by keep to the front, preserving
// relative order within both groups.
func stablePartition(options []Option, keep func(Option) bool) {
	sort.SliceStable(options, func(i, j int) bool {
		return keep(options[i]) && !keep(options[j])
	})
}

// classifyChance checks the High threshold before Medium, both against
// the same cutoff.
func classifyChance(rank, cutoff int) ChanceTier {
	switch {
	case float64(rank) <= float64(cutoff)*0.8:
		return ChanceHigh
	case float64(rank) <= float64(cutoff)*0.9:
		return ChanceMedium
	default:
		return ChanceLow
	}
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
