// internal/workers/communication/send-results-notification/handler_test.go
package sendresultsnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"edupath-ksa/internal/common/config"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/notify"
	"edupath-ksa/internal/recommender"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockEmailSender struct {
	SendEmailFunc func(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
	calls         int
}

func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error) {
	m.calls++
	return m.SendEmailFunc(ctx, to, subject, textBody, htmlBody)
}

type MockSMSSender struct {
	SendSMSFunc func(ctx context.Context, phone, message string) (string, error)
	calls       int
}

func (m *MockSMSSender) SendSMS(ctx context.Context, phone, message string) (string, error) {
	m.calls++
	return m.SendSMSFunc(ctx, phone, message)
}

type captureNotifier struct {
	summary notify.Summary
}

func (c *captureNotifier) NotifyResults(ctx context.Context, to notify.Recipient, s notify.Summary) (*notify.Delivery, error) {
	c.summary = s
	return &notify.Delivery{Channels: []string{notify.ChannelEmail}, EmailMessageID: "m-1"}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Enabled: true, Timeout: 5 * time.Second}
}

func createTestInput() *Input {
	return &Input{
		StudentName:      "Sara Alharbi",
		Email:            "sara@example.com",
		Phone:            "+966500000000",
		CompositeScore:   92.3,
		PerformanceLevel: recommender.LevelExcellentPlus,
		Recommendations: []recommender.Recommendation{
			{University: "King Saud University", City: "Riyadh", Major: "Medicine", MinScore: 90, StudentScore: "92.3", MatchPercentage: 75},
		},
	}
}

func okEmail() *MockEmailSender {
	return &MockEmailSender{SendEmailFunc: func(ctx context.Context, to, subject, textBody, htmlBody string) (string, error) {
		return "email-123", nil
	}}
}

func okSMS() *MockSMSSender {
	return &MockSMSSender{SendSMSFunc: func(ctx context.Context, phone, message string) (string, error) {
		return "sms-456", nil
	}}
}

func failingSMS() *MockSMSSender {
	return &MockSMSSender{SendSMSFunc: func(ctx context.Context, phone, message string) (string, error) {
		return "", errors.New("throttled")
	}}
}

func newTestHandler(t *testing.T, email notify.EmailSender, sms notify.SMSSender) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(createTestConfig(), notify.New(email, sms, log), log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
}

func TestHandler_Execute_BothChannels(t *testing.T) {
	email, sms := okEmail(), okSMS()
	h := newTestHandler(t, email, sms)

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, []string{notify.ChannelEmail, notify.ChannelSMS}, output.Channels)
	assert.Equal(t, "email-123", output.EmailMessageID)
	assert.Equal(t, "sms-456", output.SMSMessageID)
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, sms.calls)
}

func TestHandler_Execute_EmailOnlyRecipient(t *testing.T) {
	email, sms := okEmail(), okSMS()
	h := newTestHandler(t, email, sms)

	input := createTestInput()
	input.Phone = ""
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []string{notify.ChannelEmail}, output.Channels)
	assert.Zero(t, sms.calls)
}

func TestHandler_Execute_PartialFailureCompletes(t *testing.T) {
	h := newTestHandler(t, okEmail(), failingSMS())

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, []string{notify.ChannelEmail}, output.Channels)
	assert.Empty(t, output.SMSMessageID)
}

func TestHandler_Execute_DerivesPerformanceLevel(t *testing.T) {
	n := &captureNotifier{}
	h := NewHandler(createTestConfig(), n, logger.NewTestLogger(t))

	input := createTestInput()
	input.PerformanceLevel = ""
	input.CompositeScore = 84.5
	_, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, recommender.LevelExcellent, n.summary.PerformanceLevel)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		email        notify.EmailSender
		sms          notify.SMSSender
		mutate       func(in *Input)
		expectedCode apperrors.ErrorCode
		retryable    bool
	}{
		{
			name:         "no contact details",
			email:        okEmail(),
			sms:          okSMS(),
			mutate:       func(in *Input) { in.Email, in.Phone = "", "" },
			expectedCode: apperrors.ErrCodeValidationFailed,
		},
		{
			name:         "only channel fails",
			email:        okEmail(),
			sms:          failingSMS(),
			mutate:       func(in *Input) { in.Email = "" },
			expectedCode: apperrors.ErrCodeNotificationSendFailed,
			retryable:    true,
		},
		{
			name:         "no sender configured for contact",
			mutate:       func(in *Input) {},
			expectedCode: apperrors.ErrCodeNotificationSendFailed,
			retryable:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.email, tt.sms)
			input := createTestInput()
			tt.mutate(input)

			output, err := h.Execute(context.Background(), input)

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr := apperrors.AsStandardError(err)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}
