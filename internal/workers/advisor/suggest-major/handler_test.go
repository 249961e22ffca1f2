// internal/workers/advisor/suggest-major/handler_test.go
package suggestmajor

import (
	"context"
	"testing"
	"time"

	"edupath-ksa/internal/advisor"
	"edupath-ksa/internal/common/config"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockAdvisor struct {
	mock.Mock
}

func (m *mockAdvisor) Suggest(ctx context.Context, userID int64, req advisor.Request) (*advisor.Suggestion, error) {
	args := m.Called(ctx, userID, req)
	s, _ := args.Get(0).(*advisor.Suggestion)
	return s, args.Error(1)
}

func createTestConfig() *Config {
	return &Config{Enabled: true, Timeout: 5 * time.Second}
}

func createTestInput() *Input {
	return &Input{UserID: 3, GPA: 96, GAT: 91, Tahsili: 92}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{Enabled: true, Timeout: 60000})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Minute, cfg.Timeout)

	assert.Equal(t, 45*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
}

func TestHandler_Execute_PassesScores(t *testing.T) {
	adv := &mockAdvisor{}
	adv.On("Suggest", mock.Anything, int64(3), advisor.Request{GPA: 96, GAT: 91, Tahsili: 92}).
		Return(&advisor.Suggestion{Major: "Computer Science", Source: advisor.SourceAI, Provider: "gemini"}, nil)
	h := NewHandler(createTestConfig(), adv, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, "Computer Science", output.Major)
	assert.Equal(t, advisor.SourceAI, output.Source)
	assert.Equal(t, "gemini", output.Provider)
	adv.AssertExpectations(t)
}

func TestHandler_Execute_HeuristicWithoutProvider(t *testing.T) {
	h := NewHandler(createTestConfig(), advisor.New(nil, logger.NewTestLogger(t)), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{GPA: 96, GAT: 91, Tahsili: 92})

	require.NoError(t, err)
	assert.Equal(t, "General Doctor", output.Major)
	assert.Equal(t, advisor.SourceHeuristic, output.Source)
	assert.Equal(t, "none", output.Provider)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "gpa above range", input: &Input{GPA: 101, GAT: 80, Tahsili: 80}},
		{name: "negative gat", input: &Input{GPA: 90, GAT: -1, Tahsili: 80}},
		{name: "tahsili above range", input: &Input{GPA: 90, GAT: 80, Tahsili: 120}},
		{name: "no scores", input: &Input{UserID: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := &mockAdvisor{}
			h := NewHandler(createTestConfig(), adv, logger.NewTestLogger(t))

			output, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, apperrors.AsStandardError(err).Code)
			adv.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_TimeoutIsRetryable(t *testing.T) {
	adv := &mockAdvisor{}
	adv.On("Suggest", mock.Anything, int64(3), mock.Anything).
		Return(nil, apperrors.NewAITimeoutError("gemini"))
	h := NewHandler(createTestConfig(), adv, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())

	require.Error(t, err)
	assert.Nil(t, output)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeAITimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
