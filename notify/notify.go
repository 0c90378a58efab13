package notify

// ============================================================================
// NOTIFY — Delivers the weekly summary to stakeholders
// ============================================================================
// RenderSummary turns an export bundle into a transport-neutral Message.
// Transports (SMTP, webhook, Kafka) only move that message; none of them
// look at the engine result again.
// ============================================================================

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/export"
)

// Transport names accepted by New.
const (
	TransportSMTP    = "smtp"
	TransportWebhook = "webhook"
	TransportKafka   = "kafka"
)

// SubjectLayout formats the reference date in the subject line.
const SubjectLayout = "Jan 02, 2006"

// DefaultSignature closes the message body when none is configured.
const DefaultSignature = "Claims Analytics"

var (
	// ErrUnknownTransport is returned by New for an unsupported transport name.
	ErrUnknownTransport = errors.New("unknown notify transport")
	// ErrNoRecipients is returned when a transport that needs recipients has none.
	ErrNoRecipients = errors.New("no recipients configured")
)

// Attachment is a file carried with the message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Message is one rendered notification.
type Message struct {
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Notifier delivers a message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ============================================================================
// RENDERING
// ============================================================================

var bodyTemplate = template.Must(template.New("body").Parse(`Hi Team,

Please find a brief summary of this week's claims performance. All detailed reports have been included as attachments.

Key Metrics
----------------
This Week's Claims     : {{.ClaimsThisWeek}}
Last Week's Claims     : {{.ClaimsLastWeek}}
WoW Growth             : {{.WoWGrowth}}
Total Weekly Cost      : {{.CostThisWeek}}
Average Cost per Claim : {{.AvgCostThisWeek}}

Let me know if you need further detail or a breakdown by specific segments.

Regards,
{{.Signature}}
`))

type bodyData struct {
	ClaimsThisWeek  string
	ClaimsLastWeek  string
	WoWGrowth       string
	CostThisWeek    string
	AvgCostThisWeek string
	Signature       string
}

// Subject returns the subject line for a run dated today.
func Subject(today time.Time) string {
	return "Weekly Claims Summary – " + today.Format(SubjectLayout)
}

// RenderSummary builds the weekly message from a finished bundle. The summary
// and top contributors tables are attached as CSV.
func RenderSummary(b export.Bundle, signature string) (Message, error) {
	if b.Result == nil {
		return Message{}, errors.New("render summary: bundle has no result")
	}
	if strings.TrimSpace(signature) == "" {
		signature = DefaultSignature
	}

	report := b.Result.Summary
	value := func(name string) string {
		v, _ := report.Value(name)
		return v
	}
	data := bodyData{
		ClaimsThisWeek:  value(engine.MetricClaimsThisWeek),
		ClaimsLastWeek:  value(engine.MetricClaimsLastWeek),
		WoWGrowth:       value(engine.MetricWoWGrowth),
		CostThisWeek:    value(engine.MetricCostThisWeek),
		AvgCostThisWeek: value(engine.MetricAvgCostThisWeek),
		Signature:       signature,
	}

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render body: %w", err)
	}

	msg := Message{Subject: Subject(b.Result.Today), Body: body.String()}
	for _, name := range []string{export.ArtifactSummary, export.ArtifactTopContributors} {
		table, ok := b.Table(name)
		if !ok {
			continue
		}
		content, err := export.EncodeCSV(table)
		if err != nil {
			return Message{}, fmt.Errorf("attach %s: %w", name, err)
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Name:        name + ".csv",
			ContentType: "text/csv",
			Content:     content,
		})
	}
	return msg, nil
}

// ============================================================================
// CONSTRUCTION
// ============================================================================

// Config selects and configures one transport.
type Config struct {
	Transport  string        `mapstructure:"transport" yaml:"transport"`
	Recipients []string      `mapstructure:"recipients" yaml:"recipients"`
	Signature  string        `mapstructure:"signature" yaml:"signature"`
	SMTP       SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Webhook    WebhookConfig `mapstructure:"webhook" yaml:"webhook"`
	Kafka      KafkaConfig   `mapstructure:"kafka" yaml:"kafka"`
}

// New returns the notifier for cfg.Transport.
func New(cfg Config) (Notifier, error) {
	var (
		n   Notifier
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case TransportSMTP:
		n, err = NewSMTP(cfg.SMTP, cfg.Recipients)
	case TransportWebhook:
		n, err = NewWebhook(cfg.Webhook)
	case TransportKafka:
		n, err = NewKafka(cfg.Kafka)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}
