package service

import (
	"context"
	"time"

	"tally/events"
	"tally/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByUsername retrieves a user by their unique username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID retrieves a user by id
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Create creates a new user with the given starting budget
	Create(ctx context.Context, username string, budget float64) (*models.User, error)

	// AddBudget applies a signed budget delta atomically
	AddBudget(ctx context.Context, id int64, delta float64) error

	// Exists reports whether a user with the given id exists
	Exists(ctx context.Context, id int64) (bool, error)

	// GetAll returns all users ordered by budget, richest first
	GetAll(ctx context.Context) ([]*models.User, error)
}

// QuestionRepository defines the interface for cached question snapshots
type QuestionRepository interface {
	// GetByID retrieves a cached question snapshot
	GetByID(ctx context.Context, id int64) (*models.Question, error)

	// Insert stores a question snapshot
	Insert(ctx context.Context, q *models.Question) error

	// Delete removes a cached question snapshot
	Delete(ctx context.Context, id int64) error

	// Replace overwrites the cached snapshot whole (delete + insert)
	Replace(ctx context.Context, q *models.Question) error

	// Exists reports whether a question with the given id is cached
	Exists(ctx context.Context, id int64) (bool, error)

	// ListActiveIDs returns ids of cached questions that have not resolved
	ListActiveIDs(ctx context.Context) ([]int64, error)

	// GetByIDs retrieves cached snapshots keyed by id; missing ids are absent
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Question, error)
}

// ResponseRepository defines the interface for the append-only responses log
type ResponseRepository interface {
	// Create appends a new, ungraded response row
	Create(ctx context.Context, resp *models.Response) (*models.Response, error)

	// GetLatest returns the newest response a user gave to a question, or nil
	GetLatest(ctx context.Context, userID, questionID int64) (*models.Response, error)

	// ListByQuestion returns every response recorded against a question
	ListByQuestion(ctx context.Context, questionID int64) ([]*models.Response, error)

	// ListByUser returns every response a user has recorded
	ListByUser(ctx context.Context, userID int64) ([]*models.Response, error)

	// SetGrade backfills correctness onto the row matched by timestamp
	SetGrade(ctx context.Context, userID, questionID int64, createdAt time.Time, correct bool) error
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)

	// ListByUser returns a user's ledger entries
	ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error)
}

// PositionRepository defines the interface for current share holdings
type PositionRepository interface {
	// Get returns a user's position on a question, or nil
	Get(ctx context.Context, userID, questionID int64) (*models.Position, error)

	// Upsert writes the position row for (user, question)
	Upsert(ctx context.Context, p *models.Position) error

	// ListByQuestion returns every open position on a question
	ListByQuestion(ctx context.Context, questionID int64) ([]*models.Position, error)

	// ListByUser returns every open position a user holds
	ListByUser(ctx context.Context, userID int64) ([]*models.Position, error)

	// Delete removes an emptied position row
	Delete(ctx context.Context, p *models.Position) error
}

// StatsRepository defines the interface for cumulative accuracy counters
type StatsRepository interface {
	// CreateDefault inserts a zeroed stats row for a new user
	CreateDefault(ctx context.Context, userID int64) error

	// Get returns a user's stats row, or nil
	Get(ctx context.Context, userID int64) (*models.UserStats, error)

	// Increment adds newly scored answers to the counters
	Increment(ctx context.Context, userID int64, correct, incorrect int) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork provides transactional access to all repositories
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	UserRepository() UserRepository
	QuestionRepository() QuestionRepository
	ResponseRepository() ResponseRepository
	TransactionRepository() TransactionRepository
	PositionRepository() PositionRepository
	StatsRepository() StatsRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// MarketDataSource defines the interface to the external market API.
// Snapshots come back already mapped to domain questions; records the
// source could not parse are dropped before they reach the caller.
type MarketDataSource interface {
	// GetQuestions returns up to limit active questions for a tag
	GetQuestions(ctx context.Context, tag string, limit int) ([]*models.Question, error)

	// GetQuestionsByIDs returns one snapshot per requested id, in order.
	// A nil entry means that id could not be refreshed this run and the
	// caller should treat it as a no-op.
	GetQuestionsByIDs(ctx context.Context, ids []int64) ([]*models.Question, error)
}

// UserService defines user account operations
type UserService interface {
	// GetOrCreate retrieves a user by username, creating them with the
	// starting budget and a zeroed stats row on first interaction
	GetOrCreate(ctx context.Context, username string) (*models.User, error)

	// ListUsers returns all users with their stats, ranked by budget
	ListUsers(ctx context.Context) ([]*models.UserOverview, error)

	// History returns the per-user report behind the history command
	History(ctx context.Context, username string) (*models.UserHistory, error)
}

// PredictionService drives the predict flow
type PredictionService interface {
	// StartSession fetches current questions, refreshes the cache for the
	// ones already present, and annotates each with the user's latest
	// prior response (nil when the user never answered)
	StartSession(ctx context.Context, user *models.User) (*PredictSession, error)

	// SubmitResponse persists the question snapshot and a new response
	// row. Declining to answer is expressed by not calling it.
	SubmitResponse(ctx context.Context, user *models.User, question *models.Question, answer models.Side, explanation *string) (*models.Response, error)
}

// BettingService drives the bet and sell flows
type BettingService interface {
	// StartSession fetches current questions and loads the user's
	// existing position on each (nil when the user never traded it)
	StartSession(ctx context.Context, user *models.User) (*BetSession, error)

	// SellSession lists the user's open positions with their cached
	// question snapshots, for direct selling
	SellSession(ctx context.Context, user *models.User) (*BetSession, error)

	// ExecuteTransaction validates the amount against the user's budget
	// (buy) or sell ceiling (sell), runs the position engine, and
	// persists snapshot, transaction, position, and budget atomically
	ExecuteTransaction(ctx context.Context, user *models.User, question *models.Question, kind models.TransactionType, side models.Side, amount float64) (*TransactionResult, error)
}

// SettlementService drives the update flow
type SettlementService interface {
	// Run refreshes all active questions, scores predictions on newly
	// resolved ones, liquidates their open positions, and returns the
	// change report
	Run(ctx context.Context) (*models.ChangeReport, error)
}

// PredictSession is the structured listing behind the predict prompt.
// Questions and Prior are parallel slices.
type PredictSession struct {
	Questions []*models.Question
	Prior     []*models.Response
}

// BetSession is the structured listing behind the bet and sell prompts.
// Questions and Positions are parallel slices.
type BetSession struct {
	Questions []*models.Question
	Positions []*models.Position
}

// TransactionResult reports the effect of one executed transaction.
type TransactionResult struct {
	Transaction *models.Transaction
	Position    *models.Position
	NewBudget   float64
}
