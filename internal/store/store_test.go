// internal/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/recommender"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *AttemptCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewAttemptCache(client, time.Minute)
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

var createdAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "birthdate", "gender",
		"education_level", "role", "password_hash", "ai_recommendation", "created_at"})
}

func attemptRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "quiz_id", "user_id", "composite_score", "duration_seconds",
		"answers_json", "recommendations_json", "created_at"})
}

const sampleRecs = `[{"university":"جامعة الملك خالد","city":"أبها","type":"government","major":"التربية",` +
	`"minScore":75,"studentScore":"92.10","matchPercentage":93,"hasInterest":false}]`

// ==========================
// Migration Tests
// ==========================

func TestStore_Migrate(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	for _, stmt := range schema {
		mock.ExpectExec(q(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Migrate_StopsOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectExec(q(schema[0])).WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// User Tests
// ==========================

func TestStore_CreateUser(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(insertUserSQL)).
		WithArgs("Sara", "Alqahtani", "sara@example.com", "", "", "female", "secondary", "student", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, createdAt))

	u := &User{FirstName: "Sara", LastName: "Alqahtani", Email: " sara@example.com ", Gender: "female",
		EducationLevel: "secondary", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))

	assert.Equal(t, int64(12), u.ID)
	assert.Equal(t, "student", u.Role)
	assert.Equal(t, createdAt, u.CreatedAt)
	assert.Equal(t, "Sara Alqahtani", u.FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(insertUserSQL)).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err := s.CreateUser(context.Background(), &User{Email: "sara@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStore_GetUser(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectUserByIDSQL)).WithArgs(int64(5)).
		WillReturnRows(userRows().AddRow(5, "Omar", "", "omar@example.com", "0500000000", "2006-01-01", "male",
			"secondary", "admin", "hash", "Computer Science", createdAt))

	u, err := s.GetUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "Computer Science", u.AIRecommendation)
	assert.Equal(t, "Omar", u.FullName())
}

func TestStore_GetUserByEmail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectUserByEmailSQL)).WithArgs("ghost@example.com").WillReturnRows(userRows())

	_, err := s.GetUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetAIRecommendation(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectExec(q(updateAIRecommendationSQL)).WithArgs(int64(5), "Pharmacy").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(updateAIRecommendationSQL)).WithArgs(int64(99), "Pharmacy").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.SetAIRecommendation(context.Background(), 5, "Pharmacy"))
	assert.ErrorIs(t, s.SetAIRecommendation(context.Background(), 99, "Pharmacy"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectUserByIDSQL)).WillReturnError(errors.New("connection reset"))

	_, err := s.GetUser(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
}

// ==========================
// Quiz Tests
// ==========================

func TestStore_GetQuiz_WithQuestions(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectQuizSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "is_active", "created_by", "created_at"}).
			AddRow(1, "الاستبيان الأكاديمي", "", true, nil, createdAt))
	mock.ExpectQuery(q(selectQuestionsSQL)).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "question_text", "question_type", "options_json", "is_required"}).
			AddRow(1, 1, "المسار", "single", []byte(`["science","admin"]`), true).
			AddRow(2, 1, "ملاحظات", "text", []byte(`[]`), false))

	quiz, err := s.GetQuiz(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, quiz.CreatedBy)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, []string{"science", "admin"}, quiz.Questions[0].Options)
	assert.False(t, quiz.Questions[1].IsRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListQuizzes_ActiveOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectActiveQuizzesSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "is_active", "created_by", "created_at"}).
			AddRow(3, "Personality", "", true, 7, createdAt))

	quizzes, err := s.ListQuizzes(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	require.NotNil(t, quizzes[0].CreatedBy)
	assert.Equal(t, int64(7), *quizzes[0].CreatedBy)
}

func TestStore_CreateQuiz(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	admin := int64(2)
	mock.ExpectQuery(q(insertQuizSQL)).WithArgs("Interests", "second survey", true, int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, createdAt))

	quiz := &Quiz{Title: "Interests", Description: "second survey", IsActive: true, CreatedBy: &admin}
	require.NoError(t, s.CreateQuiz(context.Background(), quiz))
	assert.Equal(t, int64(4), quiz.ID)
}

func TestStore_AddQuestion_UnknownQuiz(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(insertQuestionSQL)).
		WithArgs(int64(42), "Why?", "text", sqlmock.AnyArg(), true).
		WillReturnError(&pq.Error{Code: "23503"})

	err := s.AddQuestion(context.Background(), &Question{QuizID: 42, Text: "Why?", IsRequired: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

// ==========================
// Attempt Tests
// ==========================

func TestStore_SaveAttempt_PopulatesCache(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, cache := setupCache(t)
	s := New(db, logger.NewTestLogger(t)).WithCache(cache)

	mock.ExpectQuery(q(insertAttemptSQL)).
		WithArgs(int64(1), int64(9), 92.1, 120, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(31, createdAt))

	a := &Attempt{
		QuizID:          SurveyQuizID,
		UserID:          9,
		CompositeScore:  92.1,
		DurationSeconds: 120,
		Answers:         map[string]interface{}{"gpa": "95", "track": "science"},
		Recommendations: []recommender.Recommendation{{University: "جامعة الملك خالد", Major: "التربية", MinScore: 75}},
	}
	require.NoError(t, s.SaveAttempt(context.Background(), a))
	assert.Equal(t, int64(31), a.ID)
	assert.True(t, mr.Exists("attempt:latest:9:1"))

	// served from Redis: no further SQL expected
	latest, err := s.LatestAttempt(context.Background(), 9, SurveyQuizID)
	require.NoError(t, err)
	assert.Equal(t, int64(31), latest.ID)
	assert.Equal(t, "التربية", latest.Recommendations[0].Major)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestAttempt_CacheMiss(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, cache := setupCache(t)
	s := New(db, logger.NewTestLogger(t)).WithCache(cache)

	mock.ExpectQuery(q(selectLatestAttemptSQL)).WithArgs(int64(9), int64(1)).
		WillReturnRows(attemptRows().AddRow(30, 1, 9, 88.5, 90, []byte(`{"gpa":"90"}`), []byte(sampleRecs), createdAt))

	a, err := s.LatestAttempt(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.Equal(t, "90", a.Answers["gpa"])
	require.Len(t, a.Recommendations, 1)
	assert.Equal(t, 93, a.Recommendations[0].MatchPercentage)
	assert.True(t, mr.Exists("attempt:latest:9:1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestAttempt_CacheDown(t *testing.T) {
	db, mock := setupMockDB(t)
	client, redisMock := redismock.NewClientMock()
	s := New(db, logger.NewTestLogger(t)).WithCache(NewAttemptCache(client, time.Minute))

	redisMock.ExpectGet("attempt:latest:9:1").SetErr(errors.New("connection refused"))
	mock.ExpectQuery(q(selectLatestAttemptSQL)).WithArgs(int64(9), int64(1)).
		WillReturnRows(attemptRows().AddRow(30, 1, 9, 88.5, 90, []byte(`{}`), []byte(`[]`), createdAt))
	redisMock.Regexp().ExpectSet("attempt:latest:9:1", `.*`, time.Minute).SetErr(errors.New("connection refused"))

	a, err := s.LatestAttempt(context.Background(), 9, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestAttempt_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectLatestAttemptSQL)).WithArgs(int64(9), int64(1)).WillReturnRows(attemptRows())

	_, err := s.LatestAttempt(context.Background(), 9, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAttempts(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectAllAttemptsSQL)).WithArgs(maxListLimit).
		WillReturnRows(attemptRows().
			AddRow(2, 1, 4, 80.0, 60, []byte(`{}`), []byte(`[]`), createdAt).
			AddRow(1, 1, 3, 70.0, 60, []byte(`{}`), []byte(`[]`), createdAt))
	mock.ExpectQuery(q(selectAttemptsByUserSQL)).WithArgs(int64(3), DefaultListLimit).
		WillReturnRows(attemptRows().AddRow(1, 1, 3, 70.0, 60, []byte(`{}`), []byte(`[]`), createdAt))

	all, err := s.ListAttempts(context.Background(), 0, 10_000)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.ListAttempts(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(3), mine[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetAttempt_CorruptJSON(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db, logger.NewTestLogger(t))

	mock.ExpectQuery(q(selectAttemptSQL)).WithArgs(int64(8)).
		WillReturnRows(attemptRows().AddRow(8, 1, 3, 70.0, 60, []byte(`{`), []byte(`[]`), createdAt))

	_, err := s.GetAttempt(context.Background(), 8)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
}

// ==========================
// Cache Tests
// ==========================

func TestAttemptCache_RoundTripAndInvalidate(t *testing.T) {
	mr, cache := setupCache(t)
	ctx := context.Background()

	miss, err := cache.Get(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Set(ctx, &Attempt{ID: 5, UserID: 1, QuizID: 1, CompositeScore: 81.25}))
	assert.Equal(t, time.Minute, mr.TTL("attempt:latest:1:1"))

	hit, err := cache.Get(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 81.25, hit.CompositeScore)

	require.NoError(t, cache.Invalidate(ctx, 1, 1))
	assert.False(t, mr.Exists("attempt:latest:1:1"))
}

func TestAttemptCache_CorruptEntry(t *testing.T) {
	mr, cache := setupCache(t)
	require.NoError(t, mr.Set("attempt:latest:1:1", "not json"))

	_, err := cache.Get(context.Background(), 1, 1)
	assert.Error(t, err)
}
