// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/common/metrics"
	"counseling-workers/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	accounts  store.AccountDirectory
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	templates map[string]notificationTemplate
}

type notificationTemplate struct {
	subject string
	body    string
}

func NewHandler(config *Config, accounts store.AccountDirectory, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:    config,
		accounts:  accounts,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
		templates: loadTemplates(),
	}, nil
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
	template, ok := h.templates[input.NotificationType]
	if !ok {
		return nil, errors.NewInvalidInput("unknown notification type", fmt.Sprintf("notificationType=%q", input.NotificationType))
	}

	notificationID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	account, err := h.accounts.GetAccount(ctx, input.AccountID)
	if err != nil {
		// A missing recipient is not a workflow failure; the event has
		// already happened, there is just nobody to tell.
		if errors.Is(err, errors.ErrCodeNotFound) {
			h.logger.Warn("recipient not found", map[string]interface{}{
				"accountId": input.AccountID,
			})
			return &Output{NotificationID: notificationID, Status: StatusSkipped, SentAt: sentAt}, nil
		}
		return nil, err
	}

	data := map[string]interface{}{
		"name":             account.Name,
		"accountId":        account.ID,
		"notificationType": input.NotificationType,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(template.subject, data)
	body := renderTemplate(template.body, data)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && account.Email != "" {
		if err := h.sendEmail(ctx, account.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err.Error(),
				"email": account.Email,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		emailSent = true
	}

	if h.config.SMSEnabled && account.Phone != "" && input.Priority == PriorityHigh {
		if err := h.sendSMS(ctx, account.Phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err.Error(),
				"phone": account.Phone,
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}, nil
		}
		smsSent = true
	}

	status := StatusSkipped
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId":   notificationID,
		"notificationType": input.NotificationType,
		"status":           status,
	})

	return &Output{NotificationID: notificationID, Status: status, SentAt: sentAt}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SMSSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SMSSenderID),
			},
		}
	}
	_, err := h.snsClient.Publish(ctx, input)
	return err
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

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remaining placeholders had no value; drop them.
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loadTemplates() map[string]notificationTemplate {
	return map[string]notificationTemplate{
		TypeSubscriptionActivated: {
			subject: "Your Subscription Is Active",
			body:    "Hi {{name}}, your {{plan}} plan is now active. Amount charged: Rs. {{price}}.",
		},
		TypeSubscriptionUpgraded: {
			subject: "Subscription Upgraded",
			body:    "Hi {{name}}, your subscription has been upgraded to {{plan}}. Upgrade cost: Rs. {{upgradeCost}}.",
		},
		TypeReferralSettled: {
			subject: "Referral Reward Credited",
			body:    "Hi {{name}}, your referral reward of Rs. {{discount}} has been credited.",
		},
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
