// internal/workers/communication/send-results-notification/models.go
package sendresultsnotification

import "edupath-ksa/internal/recommender"

type Input struct {
	StudentName      string                       `json:"studentName"`
	Email            string                       `json:"email,omitempty"`
	Phone            string                       `json:"phone,omitempty"`
	CompositeScore   float64                      `json:"compositeScore"`
	PerformanceLevel recommender.PerformanceLevel `json:"performanceLevel,omitempty"`
	Recommendations  []recommender.Recommendation `json:"recommendations"`
}

type Output struct {
	Channels       []string `json:"notificationChannels"`
	EmailMessageID string   `json:"emailMessageId,omitempty"`
	SMSMessageID   string   `json:"smsMessageId,omitempty"`
}
