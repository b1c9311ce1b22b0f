package service

import (
	"context"
	"time"

	"tally/events"
	"tally/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, budget float64) (*models.User, error) {
	args := m.Called(ctx, username, budget)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBudget(ctx context.Context, id int64, delta float64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Insert(ctx context.Context, q *models.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) Replace(ctx context.Context, q *models.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestionRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestionRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*models.Question), args.Error(1)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(ctx context.Context, resp *models.Response) (*models.Response, error) {
	args := m.Called(ctx, resp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) GetLatest(ctx context.Context, userID, questionID int64) (*models.Response, error) {
	args := m.Called(ctx, userID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Response, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Response, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) SetGrade(ctx context.Context, userID, questionID int64, createdAt time.Time, correct bool) error {
	args := m.Called(ctx, userID, questionID, createdAt, correct)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockPositionRepository is a mock implementation of PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) Get(ctx context.Context, userID, questionID int64) (*models.Position, error) {
	args := m.Called(ctx, userID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Position), args.Error(1)
}

func (m *MockPositionRepository) Upsert(ctx context.Context, p *models.Position) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPositionRepository) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Position, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Position), args.Error(1)
}

func (m *MockPositionRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Position), args.Error(1)
}

func (m *MockPositionRepository) Delete(ctx context.Context, p *models.Position) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CreateDefault(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStatsRepository) Get(ctx context.Context, userID int64) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

func (m *MockStatsRepository) Increment(ctx context.Context, userID int64, correct, incorrect int) error {
	args := m.Called(ctx, userID, correct, incorrect)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// discardPublisher swallows events for tests that don't assert on them.
type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) {}

// MockMarketDataSource is a mock implementation of MarketDataSource
type MockMarketDataSource struct {
	mock.Mock
}

func (m *MockMarketDataSource) GetQuestions(ctx context.Context, tag string, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, tag, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockMarketDataSource) GetQuestionsByIDs(ctx context.Context, ids []int64) ([]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// plain fields so tests can hand it the repo mocks they assert against.
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	questionRepo    QuestionRepository
	responseRepo    ResponseRepository
	transactionRepo TransactionRepository
	positionRepo    PositionRepository
	statsRepo       StatsRepository
	eventPublisher  EventPublisher
}

// SetRepositories configures the repositories returned by the accessors.
// Pass nil for any repository the test does not touch.
func (m *MockUnitOfWork) SetRepositories(
	users UserRepository,
	questions QuestionRepository,
	responses ResponseRepository,
	transactions TransactionRepository,
	positions PositionRepository,
	stats StatsRepository,
) {
	m.userRepo = users
	m.questionRepo = questions
	m.responseRepo = responses
	m.transactionRepo = transactions
	m.positionRepo = positions
	m.statsRepo = stats
}

// SetEventPublisher configures the publisher returned by EventBus. When
// unset, published events are discarded.
func (m *MockUnitOfWork) SetEventPublisher(p EventPublisher) {
	m.eventPublisher = p
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) QuestionRepository() QuestionRepository {
	return m.questionRepo
}

func (m *MockUnitOfWork) ResponseRepository() ResponseRepository {
	return m.responseRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) PositionRepository() PositionRepository {
	return m.positionRepo
}

func (m *MockUnitOfWork) StatsRepository() StatsRepository {
	return m.statsRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventPublisher == nil {
		return discardPublisher{}
	}
	return m.eventPublisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
