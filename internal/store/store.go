// Package store persists users, quizzes and quiz attempts in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/recommender"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"

	DefaultListLimit = 50
	maxListLimit     = 200
)

type Store struct {
	db     *sql.DB
	cache  *AttemptCache
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// WithCache puts a Redis read-through cache in front of LatestAttempt.
func (s *Store) WithCache(cache *AttemptCache) *Store {
	s.cache = cache
	return s
}

// Migrate creates the schema if needed and seeds the academic survey quiz.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	s.logger.Info("schema migrated", map[string]interface{}{"steps": len(schema)})
	return nil
}

// ==========================
// Users
// ==========================

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Role == "" {
		u.Role = "student"
	}
	err := s.db.QueryRowContext(ctx, insertUserSQL,
		u.FirstName, u.LastName, u.Email, u.Phone, u.Birthdate, u.Gender, u.EducationLevel, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return s.classify("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.scanUser("get user", s.db.QueryRowContext(ctx, selectUserByIDSQL, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser("get user by email", s.db.QueryRowContext(ctx, selectUserByEmailSQL, strings.TrimSpace(email)))
}

func (s *Store) scanUser(op string, row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Birthdate, &u.Gender,
		&u.EducationLevel, &u.Role, &u.PasswordHash, &u.AIRecommendation, &u.CreatedAt)
	if err != nil {
		return nil, s.classify(op, err)
	}
	return &u, nil
}

// SetAIRecommendation stores the latest advisor suggestion on the user row.
func (s *Store) SetAIRecommendation(ctx context.Context, userID int64, major string) error {
	res, err := s.db.ExecContext(ctx, updateAIRecommendationSQL, userID, major)
	if err != nil {
		return s.classify("set ai recommendation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==========================
// Quizzes
// ==========================

func (s *Store) ListQuizzes(ctx context.Context, activeOnly bool) ([]Quiz, error) {
	query := selectQuizzesSQL
	if activeOnly {
		query = selectActiveQuizzesSQL
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.classify("list quizzes", err)
	}
	defer rows.Close()

	quizzes := make([]Quiz, 0)
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, s.classify("list quizzes", err)
		}
		quizzes = append(quizzes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list quizzes", err)
	}
	return quizzes, nil
}

// GetQuiz returns the quiz together with its questions.
func (s *Store) GetQuiz(ctx context.Context, id int64) (*Quiz, error) {
	q, err := scanQuiz(s.db.QueryRowContext(ctx, selectQuizSQL, id))
	if err != nil {
		return nil, s.classify("get quiz", err)
	}
	q.Questions, err = s.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Store) CreateQuiz(ctx context.Context, q *Quiz) error {
	var createdBy sql.NullInt64
	if q.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *q.CreatedBy, Valid: true}
	}
	err := s.db.QueryRowContext(ctx, insertQuizSQL, q.Title, q.Description, q.IsActive, createdBy).
		Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return s.classify("create quiz", err)
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, selectQuestionsSQL, quizID)
	if err != nil {
		return nil, s.classify("list questions", err)
	}
	defer rows.Close()

	questions := make([]Question, 0)
	for rows.Next() {
		var (
			q       Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &options, &q.IsRequired); err != nil {
			return nil, s.classify("list questions", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				s.logger.Warn("question options are not a string list", map[string]interface{}{
					"questionId": q.ID,
					"error":      err,
				})
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list questions", err)
	}
	return questions, nil
}

// AddQuestion appends a question; an unknown quiz yields ErrNotFound.
func (s *Store) AddQuestion(ctx context.Context, q *Question) error {
	if q.Type == "" {
		q.Type = "text"
	}
	options := q.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	err = s.db.QueryRowContext(ctx, insertQuestionSQL, q.QuizID, q.Text, q.Type, optionsJSON, q.IsRequired).Scan(&q.ID)
	if err != nil {
		return s.classify("add question", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(row rowScanner) (*Quiz, error) {
	var (
		q         Quiz
		createdBy sql.NullInt64
	)
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &q.IsActive, &createdBy, &q.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		id := createdBy.Int64
		q.CreatedBy = &id
	}
	return &q, nil
}

// ==========================
// Attempts
// ==========================

// SaveAttempt inserts the attempt and refreshes the cached latest attempt for (user, quiz).
func (s *Store) SaveAttempt(ctx context.Context, a *Attempt) error {
	answers := a.Answers
	if answers == nil {
		answers = map[string]interface{}{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	recs := a.Recommendations
	if recs == nil {
		recs = []recommender.Recommendation{}
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	err = s.db.QueryRowContext(ctx, insertAttemptSQL,
		a.QuizID, a.UserID, a.CompositeScore, a.DurationSeconds, answersJSON, recsJSON,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return s.classify("save attempt", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, a); err != nil {
			s.logger.Warn("failed to cache latest attempt", map[string]interface{}{
				"userId": a.UserID,
				"quizId": a.QuizID,
				"error":  err,
			})
			_ = s.cache.Invalidate(ctx, a.UserID, a.QuizID)
		}
	}
	return nil
}

// LatestAttempt returns the newest attempt of a user for a quiz, consulting the cache first.
func (s *Store) LatestAttempt(ctx context.Context, userID, quizID int64) (*Attempt, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, quizID)
		if err != nil {
			s.logger.Warn("attempt cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err,
			})
		} else if cached != nil {
			return cached, nil
		}
	}

	a, err := scanAttempt(s.db.QueryRowContext(ctx, selectLatestAttemptSQL, userID, quizID))
	if err != nil {
		return nil, s.classify("latest attempt", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, a); err != nil {
			s.logger.Warn("failed to cache latest attempt", map[string]interface{}{
				"userId": userID,
				"error":  err,
			})
		}
	}
	return a, nil
}

// ListAttempts lists attempts newest first. userID 0 lists every user's attempts.
func (s *Store) ListAttempts(ctx context.Context, userID int64, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if userID > 0 {
		rows, err = s.db.QueryContext(ctx, selectAttemptsByUserSQL, userID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, selectAllAttemptsSQL, limit)
	}
	if err != nil {
		return nil, s.classify("list attempts", err)
	}
	defer rows.Close()

	attempts := make([]Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, s.classify("list attempts", err)
		}
		attempts = append(attempts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list attempts", err)
	}
	return attempts, nil
}

func (s *Store) GetAttempt(ctx context.Context, id int64) (*Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, selectAttemptSQL, id))
	if err != nil {
		return nil, s.classify("get attempt", err)
	}
	return a, nil
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		a                  Attempt
		answers, recsBytes []byte
	)
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.CompositeScore, &a.DurationSeconds,
		&answers, &recsBytes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %d: %w", a.ID, err)
		}
	}
	if len(recsBytes) > 0 {
		if err := json.Unmarshal(recsBytes, &a.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations of attempt %d: %w", a.ID, err)
		}
	}
	return &a, nil
}

// classify maps driver errors onto the store sentinels and wraps the rest as query failures.
func (s *Store) classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return ErrDuplicate
		case pqForeignKeyViolation:
			return ErrNotFound
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apperrors.NewDatabaseQueryFailedError(op, err)
}
