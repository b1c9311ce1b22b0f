package service

import (
	"context"
	"testing"

	"tally/events"
	"tally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBettingService_ExecuteTransaction_BuyOpensPosition(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockTransactionRepo := new(MockTransactionRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockPublisher := new(MockEventPublisher)
	mockMarket := new(MockMarketDataSource)

	mockUoW.SetRepositories(mockUserRepo, mockQuestionRepo, nil, mockTransactionRepo, mockPositionRepo, nil)
	mockUoW.SetEventPublisher(mockPublisher)

	service := NewBettingService(mockFactory, mockMarket, testConfig())

	user := &models.User{ID: 1, Username: "alice", Budget: 100}
	question := openQuestion(10, "Will it rain tomorrow?", 0.5)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockUserRepo.On("GetByID", ctx, int64(1)).Return(user, nil)
	mockPositionRepo.On("Get", ctx, int64(1), int64(10)).Return(nil, nil)
	mockQuestionRepo.On("Replace", ctx, question).Return(nil)

	mockTransactionRepo.On("Create", ctx, mock.MatchedBy(func(tr *models.Transaction) bool {
		return tr.UserID == 1 && tr.QuestionID == 10 && tr.Type == models.TransactionBuy &&
			tr.Side == models.SideYes && tr.Amount == 50
	})).Return(&models.Transaction{
		ID: 3, UserID: 1, QuestionID: 10,
		Type: models.TransactionBuy, Side: models.SideYes, Amount: 50,
	}, nil)

	// 50$ at price 0.5 buys 100 Yes shares.
	mockPositionRepo.On("Upsert", ctx, mock.MatchedBy(func(p *models.Position) bool {
		return p.UserID == 1 && p.QuestionID == 10 && p.StakeYes == 100 && p.StakeNo == 0
	})).Return(nil)
	mockUserRepo.On("AddBudget", ctx, int64(1), float64(-50)).Return(nil)

	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.TransactionExecutedEvent)
		return ok && ev.Kind == models.TransactionBuy && ev.BudgetDelta == -50 && !ev.Forced
	})).Return()

	result, err := service.ExecuteTransaction(ctx, user, question, models.TransactionBuy, models.SideYes, 50)

	assert.NoError(t, err)
	assert.Equal(t, float64(100), result.Position.StakeYes)
	assert.Equal(t, float64(50), result.NewBudget)

	mockUoW.AssertExpectations(t)
	mockPositionRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestBettingService_ExecuteTransaction_BuyOverBudget(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockTransactionRepo := new(MockTransactionRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockMarket := new(MockMarketDataSource)

	mockUoW.SetRepositories(mockUserRepo, mockQuestionRepo, nil, mockTransactionRepo, mockPositionRepo, nil)

	service := NewBettingService(mockFactory, mockMarket, testConfig())

	user := &models.User{ID: 1, Username: "alice", Budget: 100}
	question := openQuestion(10, "Will it rain tomorrow?", 0.5)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockUserRepo.On("GetByID", ctx, int64(1)).Return(user, nil)
	mockPositionRepo.On("Get", ctx, int64(1), int64(10)).Return(nil, nil)

	result, err := service.ExecuteTransaction(ctx, user, question, models.TransactionBuy, models.SideYes, 100.01)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	mockTransactionRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBettingService_ExecuteTransaction_SellFullStake(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockTransactionRepo := new(MockTransactionRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockMarket := new(MockMarketDataSource)

	mockUoW.SetRepositories(mockUserRepo, mockQuestionRepo, nil, mockTransactionRepo, mockPositionRepo, nil)

	service := NewBettingService(mockFactory, mockMarket, testConfig())

	user := &models.User{ID: 1, Username: "alice", Budget: 10}
	question := openQuestion(10, "Will it rain tomorrow?", 0.4)
	position := &models.Position{UserID: 1, QuestionID: 10, StakeYes: 100}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockUserRepo.On("GetByID", ctx, int64(1)).Return(user, nil)
	mockPositionRepo.On("Get", ctx, int64(1), int64(10)).Return(position, nil)
	mockQuestionRepo.On("Replace", ctx, question).Return(nil)

	// Sell ceiling is 100 shares * 0.4 = 40$.
	mockTransactionRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(&models.Transaction{
		ID: 4, UserID: 1, QuestionID: 10,
		Type: models.TransactionSell, Side: models.SideYes, Amount: 40,
	}, nil)

	mockPositionRepo.On("Upsert", ctx, mock.MatchedBy(func(p *models.Position) bool {
		return p.StakeYes == 0 && p.StakeNo == 0
	})).Return(nil)
	mockUserRepo.On("AddBudget", ctx, int64(1), float64(40)).Return(nil)

	result, err := service.ExecuteTransaction(ctx, user, question, models.TransactionSell, models.SideYes, 40)

	assert.NoError(t, err)
	assert.True(t, result.Position.IsEmpty())
	assert.Equal(t, float64(50), result.NewBudget)
}

func TestBettingService_ExecuteTransaction_SellOverCeiling(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockTransactionRepo := new(MockTransactionRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockMarket := new(MockMarketDataSource)

	mockUoW.SetRepositories(mockUserRepo, mockQuestionRepo, nil, mockTransactionRepo, mockPositionRepo, nil)

	service := NewBettingService(mockFactory, mockMarket, testConfig())

	user := &models.User{ID: 1, Username: "alice", Budget: 1000}
	question := openQuestion(10, "Will it rain tomorrow?", 0.4)
	position := &models.Position{UserID: 1, QuestionID: 10, StakeYes: 100}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("Exists", ctx, int64(1)).Return(true, nil)
	mockUserRepo.On("GetByID", ctx, int64(1)).Return(user, nil)
	mockPositionRepo.On("Get", ctx, int64(1), int64(10)).Return(position, nil)

	result, err := service.ExecuteTransaction(ctx, user, question, models.TransactionSell, models.SideYes, 40.5)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	mockTransactionRepo.AssertNotCalled(t, "Create")
}

func TestBettingService_SellSession_PairsPositionsWithSnapshots(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockQuestionRepo := new(MockQuestionRepository)
	mockPositionRepo := new(MockPositionRepository)
	mockMarket := new(MockMarketDataSource)

	mockUoW.SetRepositories(nil, mockQuestionRepo, nil, nil, mockPositionRepo, nil)

	service := NewBettingService(mockFactory, mockMarket, testConfig())

	user := &models.User{ID: 1, Username: "alice"}
	p1 := &models.Position{UserID: 1, QuestionID: 10, StakeYes: 5}
	p2 := &models.Position{UserID: 1, QuestionID: 20, StakeNo: 3}
	q10 := openQuestion(10, "Will it rain tomorrow?", 0.6)
	q20 := openQuestion(20, "Will the stock market go up?", 0.4)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPositionRepo.On("ListByUser", ctx, int64(1)).Return([]*models.Position{p1, p2}, nil)
	mockQuestionRepo.On("GetByIDs", ctx, []int64{10, 20}).Return(map[int64]*models.Question{10: q10, 20: q20}, nil)

	session, err := service.SellSession(ctx, user)

	assert.NoError(t, err)
	assert.Equal(t, []*models.Question{q10, q20}, session.Questions)
	assert.Equal(t, []*models.Position{p1, p2}, session.Positions)

	// No market fetch happens; selling trades at cached prices.
	mockMarket.AssertNotCalled(t, "GetQuestions")
}
