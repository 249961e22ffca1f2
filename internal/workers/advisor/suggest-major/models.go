// internal/workers/advisor/suggest-major/models.go
package suggestmajor

import "edupath-ksa/internal/advisor"

type Input struct {
	UserID   int64                  `json:"userId,omitempty"`
	GPA      float64                `json:"gpa"`
	GAT      float64                `json:"gatScore"`
	Tahsili  float64                `json:"tahsiliScore"`
	Subjects []advisor.SubjectScore `json:"subjectScores,omitempty"`
}

type Output struct {
	Major    string `json:"suggestedMajor"`
	Source   string `json:"suggestionSource"`
	Provider string `json:"suggestionProvider"`
}
