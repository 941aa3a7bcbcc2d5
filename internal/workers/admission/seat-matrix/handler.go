// internal/workers/admission/seat-matrix/handler.go
package seatmatrix

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "seat-matrix"

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
}

// execute is a structured read over the catalog: no ranking, no
// computation, only lookup and shaping.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	switch {
	case input.InstitutionCode != "" && input.Program != "":
		return h.programSeats(input.InstitutionCode, input.Program)
	case input.InstitutionCode != "":
		return h.institutionSeats(input.InstitutionCode)
	case input.Program != "":
		return nil, errors.NewInvalidInput("a program filter requires an institution code",
			fmt.Sprintf("branch=%q", input.Program))
	default:
		return h.allSeats(), nil
	}
}

func (h *Handler) programSeats(code, program string) (*Output, error) {
	inst, ok := h.catalog.Institution(code)
	if !ok {
		return nil, errors.NewNotFound("seat matrix", fmt.Sprintf("collegeCode=%q", code))
	}
	for _, prog := range inst.Programs {
		if prog.Name == program && prog.Seats != nil {
			return &Output{
				InstitutionCode: code,
				Program:         program,
				Seats:           prog.Seats,
			}, nil
		}
	}
	return nil, errors.NewNotFound("seat matrix",
		fmt.Sprintf("collegeCode=%q branch=%q", code, program))
}

func (h *Handler) institutionSeats(code string) (*Output, error) {
	inst, ok := h.catalog.Institution(code)
	if !ok {
		return nil, errors.NewNotFound("seat matrix", fmt.Sprintf("collegeCode=%q", code))
	}
	programs := seatPrograms(inst)
	if len(programs) == 0 {
		return nil, errors.NewNotFound("seat matrix", fmt.Sprintf("collegeCode=%q", code))
	}
	return &Output{
		InstitutionCode: code,
		Programs:        programs,
	}, nil
}

func (h *Handler) allSeats() *Output {
	var institutions []InstitutionSeats
	for _, inst := range h.catalog.Institutions() {
		programs := seatPrograms(&inst)
		if len(programs) == 0 {
			continue
		}
		institutions = append(institutions, InstitutionSeats{
			InstitutionCode: inst.Code,
			Programs:        programs,
		})
	}
	return &Output{Institutions: institutions}
}

// seatPrograms lists the programs an institution publishes seat data
// for; institutions without any published seats are treated as absent
// from the matrix.
func seatPrograms(inst *catalog.Institution) []ProgramSeats {
	var programs []ProgramSeats
	for _, prog := range inst.Programs {
		if prog.Seats == nil {
			continue
		}
		programs = append(programs, ProgramSeats{
			Program: prog.Name,
			Seats:   *prog.Seats,
		})
	}
	return programs
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
