// internal/store/models.go
package store

import (
	"time"

	"edupath-ksa/internal/recommender"
)

// SurveyQuizID is the academic survey whose attempts produce university recommendations.
const SurveyQuizID int64 = 1

type User struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Birthdate        string    `json:"birthdate,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	EducationLevel   string    `json:"educationLevel,omitempty"`
	Role             string    `json:"role"`
	PasswordHash     string    `json:"-"`
	AIRecommendation string    `json:"aiRecommendation,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// FullName joins first and last name the way notifications address the student.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsActive    bool       `json:"isActive"`
	CreatedBy   *int64     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID         int64    `json:"id"`
	QuizID     int64    `json:"quizId"`
	Text       string   `json:"questionText"`
	Type       string   `json:"questionType"`
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"isRequired"`
}

// Attempt is one submitted quiz. Recommendations are only filled for the survey quiz.
type Attempt struct {
	ID              int64                        `json:"id"`
	QuizID          int64                        `json:"quizId"`
	UserID          int64                        `json:"userId"`
	CompositeScore  float64                      `json:"compositeScore"`
	DurationSeconds int                          `json:"durationSeconds"`
	Answers         map[string]interface{}       `json:"answers"`
	Recommendations []recommender.Recommendation `json:"recommendations,omitempty"`
	CreatedAt       time.Time                    `json:"createdAt"`
}
