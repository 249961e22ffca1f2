// Package advisor suggests a single university major from a student's scores,
// asking a completion provider first and falling back to fixed admission cut-offs.
package advisor

import (
	"context"
	"errors"
	"time"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/metrics"
)

const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"

	providerNone = "none"
)

type SubjectScore struct {
	Subject string   `json:"subject"`
	Score   *float64 `json:"score,omitempty"`
}

// Request carries the scores a suggestion is based on. Certificate is an
// optional base64 image of the secondary-school certificate.
type Request struct {
	GPA         float64        `json:"gpa"`
	GAT         float64        `json:"gat_score"`
	Tahsili     float64        `json:"tahsili_score"`
	Subjects    []SubjectScore `json:"subject_scores,omitempty"`
	Certificate string         `json:"certificate_base64,omitempty"`

	certificateText string
}

type Suggestion struct {
	Major           string  `json:"major"`
	Source          string  `json:"source"`
	Provider        string  `json:"provider"`
	CertificatePath string  `json:"certificatePath,omitempty"`
	ExtractedGPA    float64 `json:"extractedGpa,omitempty"`
}

// Recorder persists the latest suggestion for a user.
type Recorder interface {
	SetAIRecommendation(ctx context.Context, userID int64, major string) error
}

type Advisor struct {
	provider     Provider
	certificates *CertificateStore
	ocr          TextExtractor
	recorder     Recorder
	timeout      time.Duration
	logger       logger.Logger
}

type Option func(*Advisor)

func WithCertificates(s *CertificateStore) Option {
	return func(a *Advisor) { a.certificates = s }
}

func WithOCR(t TextExtractor) Option {
	return func(a *Advisor) { a.ocr = t }
}

func WithRecorder(r Recorder) Option {
	return func(a *Advisor) { a.recorder = r }
}

// WithTimeout bounds a single provider call; the heuristic answers when it expires.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) { a.timeout = d }
}

// New builds an advisor. A nil provider always answers with the heuristic.
func New(provider Provider, log logger.Logger, opts ...Option) *Advisor {
	a := &Advisor{
		provider: provider,
		timeout:  30 * time.Second,
		logger:   log.WithFields(map[string]interface{}{"component": "advisor"}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) providerName() string {
	if a.provider == nil {
		return providerNone
	}
	return a.provider.Name()
}

// Suggest returns one major for the request. Provider failures fall back to the
// heuristic; only a cancelled or expired caller context is reported as an error.
func (a *Advisor) Suggest(ctx context.Context, userID int64, req Request) (*Suggestion, error) {
	out := &Suggestion{Provider: a.providerName()}

	if req.Certificate != "" {
		if err := a.readCertificate(ctx, userID, &req, out); err != nil {
			return nil, err
		}
	}

	major := ""
	if a.provider != nil {
		major = a.complete(ctx, req)
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewAITimeoutError(a.providerName())
		}
	}

	if major == "" {
		out.Major = Heuristic(req.GPA, req.GAT, req.Tahsili)
		out.Source = SourceHeuristic
	} else {
		out.Major = major
		out.Source = SourceAI
	}
	metrics.AISuggestions.WithLabelValues(out.Provider, out.Source).Inc()

	if a.recorder != nil && userID > 0 {
		if err := a.recorder.SetAIRecommendation(ctx, userID, out.Major); err != nil {
			return nil, err
		}
	}

	a.logger.Info("major suggested", map[string]interface{}{
		"userId":   userID,
		"major":    out.Major,
		"source":   out.Source,
		"provider": out.Provider,
	})
	return out, nil
}

func (a *Advisor) complete(ctx context.Context, req Request) string {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.provider.Complete(callCtx, systemPrompt, buildPrompt(req))
	if err != nil {
		fields := map[string]interface{}{"provider": a.provider.Name(), "error": err}
		if errors.Is(err, context.DeadlineExceeded) {
			fields["timeout"] = a.timeout.String()
		}
		a.logger.Warn("completion failed, using heuristic", fields)
		return ""
	}

	major := Canonical(Sanitize(text))
	if major == "" {
		a.logger.Warn("completion had no usable major, using heuristic", map[string]interface{}{
			"provider": a.provider.Name(),
		})
	}
	return major
}

func (a *Advisor) readCertificate(ctx context.Context, userID int64, req *Request, out *Suggestion) error {
	if a.certificates == nil {
		return nil
	}
	data, err := a.certificates.Decode(req.Certificate)
	if err != nil {
		return err
	}
	path, err := a.certificates.Save(userID, data)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	out.CertificatePath = path

	if a.ocr == nil {
		return nil
	}
	text, err := a.ocr.ExtractText(ctx, data)
	if err != nil {
		a.logger.Warn("certificate OCR failed", map[string]interface{}{"userId": userID, "error": err})
		return nil
	}
	req.certificateText = text
	if req.GPA == 0 {
		if gpa, ok := ExtractGPA(text); ok {
			req.GPA = gpa
			out.ExtractedGPA = gpa
		}
	}
	return nil
}
