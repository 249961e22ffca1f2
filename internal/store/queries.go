// internal/store/queries.go
package store

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                BIGSERIAL PRIMARY KEY,
		first_name        TEXT NOT NULL DEFAULT '',
		last_name         TEXT NOT NULL DEFAULT '',
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL DEFAULT '',
		birthdate         TEXT NOT NULL DEFAULT '',
		gender            TEXT NOT NULL DEFAULT '',
		education_level   TEXT NOT NULL DEFAULT '',
		role              TEXT NOT NULL DEFAULT 'student',
		password_hash     TEXT NOT NULL,
		ai_recommendation TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id          BIGSERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_by  BIGINT REFERENCES users (id) ON DELETE SET NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_questions (
		id            BIGSERIAL PRIMARY KEY,
		quiz_id       BIGINT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		question_text TEXT NOT NULL,
		question_type TEXT NOT NULL DEFAULT 'text',
		options_json  JSONB NOT NULL DEFAULT '[]',
		is_required   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id                   BIGSERIAL PRIMARY KEY,
		quiz_id              BIGINT NOT NULL REFERENCES quizzes (id),
		user_id              BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		composite_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_seconds     INTEGER NOT NULL DEFAULT 0,
		answers_json         JSONB NOT NULL DEFAULT '{}',
		recommendations_json JSONB NOT NULL DEFAULT '[]',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_attempts_user_quiz_idx ON quiz_attempts (user_id, quiz_id, created_at DESC)`,
	`INSERT INTO quizzes (id, title, description, is_active)
		VALUES (1, 'الاستبيان الأكاديمي', 'المعدل والقدرات والتحصيلي والمسار والاهتمامات', TRUE)
		ON CONFLICT (id) DO NOTHING`,
	`SELECT setval(pg_get_serial_sequence('quizzes', 'id'), GREATEST((SELECT MAX(id) FROM quizzes), 1))`,
}

const userColumns = `id, first_name, last_name, email, phone, birthdate, gender, education_level,
	role, password_hash, ai_recommendation, created_at`

const (
	insertUserSQL = `
		INSERT INTO users (first_name, last_name, email, phone, birthdate, gender, education_level, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	selectUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	updateAIRecommendationSQL = `UPDATE users SET ai_recommendation = $2 WHERE id = $1`
)

const (
	quizColumns = `id, title, description, is_active, created_by, created_at`

	selectQuizzesSQL       = `SELECT ` + quizColumns + ` FROM quizzes ORDER BY id DESC`
	selectActiveQuizzesSQL = `SELECT ` + quizColumns + ` FROM quizzes WHERE is_active ORDER BY id DESC`
	selectQuizSQL          = `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`

	insertQuizSQL = `
		INSERT INTO quizzes (title, description, is_active, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	selectQuestionsSQL = `
		SELECT id, quiz_id, question_text, question_type, options_json, is_required
		FROM quiz_questions WHERE quiz_id = $1 ORDER BY id`

	insertQuestionSQL = `
		INSERT INTO quiz_questions (quiz_id, question_text, question_type, options_json, is_required)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
)

const (
	attemptColumns = `id, quiz_id, user_id, composite_score, duration_seconds, answers_json,
	recommendations_json, created_at`

	insertAttemptSQL = `
		INSERT INTO quiz_attempts (quiz_id, user_id, composite_score, duration_seconds, answers_json, recommendations_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	selectLatestAttemptSQL = `SELECT ` + attemptColumns + ` FROM quiz_attempts
		WHERE user_id = $1 AND quiz_id = $2 ORDER BY created_at DESC, id DESC LIMIT 1`

	selectAttemptsByUserSQL = `SELECT ` + attemptColumns + ` FROM quiz_attempts
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	selectAllAttemptsSQL = `SELECT ` + attemptColumns + ` FROM quiz_attempts
		ORDER BY created_at DESC, id DESC LIMIT $1`

	selectAttemptSQL = `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE id = $1`
)
