// Package notify delivers recommendation results to students by email and SMS.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/metrics"
	"edupath-ksa/internal/recommender"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Recipient struct {
	Name  string `json:"studentName"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Summary is what a results notification reports.
type Summary struct {
	CompositeScore   float64                      `json:"compositeScore"`
	PerformanceLevel recommender.PerformanceLevel `json:"performanceLevel"`
	Recommendations  []recommender.Recommendation `json:"recommendations"`
}

type Delivery struct {
	EmailMessageID string   `json:"emailMessageId,omitempty"`
	SMSMessageID   string   `json:"smsMessageId,omitempty"`
	Channels       []string `json:"channels"`
}

// Notifier sends through whichever channels are configured. A nil sender disables its channel.
type Notifier struct {
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func New(email EmailSender, sms SMSSender, log logger.Logger) *Notifier {
	return &Notifier{
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// NotifyResults tries every applicable channel and reports the first failure after trying all of them.
func (n *Notifier) NotifyResults(ctx context.Context, to Recipient, s Summary) (*Delivery, error) {
	d := &Delivery{Channels: []string{}}
	var firstErr error

	if n.email != nil && strings.TrimSpace(to.Email) != "" {
		id, err := n.sendEmail(ctx, to, s)
		if err != nil {
			firstErr = apperrors.NewNotificationSendFailedError(ChannelEmail, err)
			n.record(ChannelEmail, outcomeFailed, err)
		} else {
			d.EmailMessageID = id
			d.Channels = append(d.Channels, ChannelEmail)
			n.record(ChannelEmail, outcomeSent, nil)
		}
	} else {
		n.record(ChannelEmail, outcomeSkipped, nil)
	}

	if n.sms != nil && strings.TrimSpace(to.Phone) != "" {
		id, err := n.sms.SendSMS(ctx, to.Phone, SMSText(s))
		if err != nil {
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError(ChannelSMS, err)
			}
			n.record(ChannelSMS, outcomeFailed, err)
		} else {
			d.SMSMessageID = id
			d.Channels = append(d.Channels, ChannelSMS)
			n.record(ChannelSMS, outcomeSent, nil)
		}
	} else {
		n.record(ChannelSMS, outcomeSkipped, nil)
	}

	if firstErr != nil {
		return d, firstErr
	}
	return d, nil
}

func (n *Notifier) sendEmail(ctx context.Context, to Recipient, s Summary) (string, error) {
	text, html, err := RenderEmail(to, s)
	if err != nil {
		return "", err
	}
	return n.email.SendEmail(ctx, to.Email, emailSubject, text, html)
}

func (n *Notifier) record(channel, outcome string, err error) {
	metrics.NotificationsSent.WithLabelValues(channel, outcome).Inc()
	if err != nil {
		n.logger.Warn("notification failed", map[string]interface{}{
			"channel": channel,
			"error":   err,
		})
	}
}

var levelLabels = map[recommender.PerformanceLevel]string{
	recommender.LevelExcellentPlus: "ممتاز مرتفع",
	recommender.LevelExcellent:     "ممتاز",
	recommender.LevelVeryGood:      "جيد جداً",
	recommender.LevelGood:          "جيد",
}

type emailData struct {
	Name            string
	CompositeScore  float64
	LevelLabel      string
	Recommendations []recommender.Recommendation
}

// RenderEmail renders the text and HTML bodies of the results email.
func RenderEmail(to Recipient, s Summary) (string, string, error) {
	level := s.PerformanceLevel
	if level == "" {
		level = recommender.Performance(s.CompositeScore)
	}
	name := strings.TrimSpace(to.Name)
	if name == "" {
		name = "طالبنا العزيز"
	}
	data := emailData{
		Name:            name,
		CompositeScore:  s.CompositeScore,
		LevelLabel:      levelLabels[level],
		Recommendations: s.Recommendations,
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("render text email: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("render html email: %w", err)
	}
	return text.String(), html.String(), nil
}

// SMSText is a single short message naming the best match.
func SMSText(s Summary) string {
	if len(s.Recommendations) == 0 {
		return fmt.Sprintf("EduPath: مجموعك الموزون %.2f. لا توجد تخصصات مطابقة حالياً.", s.CompositeScore)
	}
	top := s.Recommendations[0]
	return fmt.Sprintf("EduPath: مجموعك الموزون %.2f. أفضل تخصص: %s - %s (%d%%). التفاصيل في بريدك.",
		s.CompositeScore, top.Major, top.University, top.MatchPercentage)
}
