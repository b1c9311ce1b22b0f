package service

import (
	"context"
	"fmt"

	"tally/config"
	"tally/events"
	"tally/models"
)

// bettingService implements the BettingService interface
type bettingService struct {
	uowFactory UnitOfWorkFactory
	market     MarketDataSource
	cfg        *config.Config
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, market MarketDataSource, cfg *config.Config) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		market:     market,
		cfg:        cfg,
	}
}

// StartSession fetches the current question list, refreshes cached
// snapshots, and loads the user's existing position on each question.
func (s *bettingService) StartSession(ctx context.Context, user *models.User) (*BetSession, error) {
	questions, err := s.market.GetQuestions(ctx, s.cfg.Tag, s.cfg.MaxQuestions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	questions = withinHorizon(questions, s.cfg.MaxTimeDeltaDays)
	if len(questions) == 0 {
		return &BetSession{}, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session := &BetSession{Questions: questions, Positions: make([]*models.Position, len(questions))}
	for i, q := range questions {
		cached, err := uow.QuestionRepository().Exists(ctx, q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check question %d: %w", q.ID, err)
		}
		if cached {
			if err := uow.QuestionRepository().Replace(ctx, q); err != nil {
				return nil, fmt.Errorf("failed to refresh question %d: %w", q.ID, err)
			}
		}

		position, err := uow.PositionRepository().Get(ctx, user.ID, q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load position for question %d: %w", q.ID, err)
		}
		session.Positions[i] = position
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return session, nil
}

// SellSession lists the user's open positions against their cached
// snapshots. No market fetch happens; selling trades at the last cached
// price.
func (s *bettingService) SellSession(ctx context.Context, user *models.User) (*BetSession, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	positions, err := uow.PositionRepository().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	ids := make([]int64, len(positions))
	for i, p := range positions {
		ids[i] = p.QuestionID
	}
	questions, err := uow.QuestionRepository().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	session := &BetSession{}
	for _, p := range positions {
		q := questions[p.QuestionID]
		if q == nil {
			// A position without its cached question cannot be priced.
			return nil, fmt.Errorf("question %d for position of user %d: %w", p.QuestionID, p.UserID, models.ErrNotFound)
		}
		session.Questions = append(session.Questions, q)
		session.Positions = append(session.Positions, p)
	}

	return session, nil
}

// ExecuteTransaction validates the amount, runs the position engine, and
// persists question snapshot, ledger entry, position, and budget change in
// one transaction.
func (s *bettingService) ExecuteTransaction(ctx context.Context, user *models.User, question *models.Question, kind models.TransactionType, side models.Side, amount float64) (*TransactionResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := validateReferences(ctx, uow, user.ID, question); err != nil {
		return nil, err
	}

	// Re-read the budget inside the transaction; the session's user value
	// may be stale by the time an amount is confirmed.
	current, err := uow.UserRepository().GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", user.ID, err)
	}
	if current == nil {
		return nil, &models.InvalidReferenceError{UserID: user.ID, QuestionID: question.ID, MissingUser: true}
	}

	position, err := uow.PositionRepository().Get(ctx, user.ID, question.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	if position == nil {
		position = models.NewPosition(user.ID, question.ID)
	}

	price := question.Price(side)
	var max float64
	switch kind {
	case models.TransactionBuy:
		max = current.Budget
	case models.TransactionSell:
		max = position.SellCeiling(side, price)
	default:
		return nil, fmt.Errorf("unknown transaction type %q", kind)
	}
	if amount <= 0 || amount > max {
		return nil, fmt.Errorf("amount %v not in (0, %v]: %w", amount, max, models.ErrInvalidAmount)
	}

	if err := uow.QuestionRepository().Replace(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to cache question %d: %w", question.ID, err)
	}

	transaction, err := uow.TransactionRepository().Create(ctx, &models.Transaction{
		UserID:     user.ID,
		QuestionID: question.ID,
		Type:       kind,
		Side:       side,
		Amount:     amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	newPosition, budgetDelta := position.Apply(transaction, price)
	if err := uow.PositionRepository().Upsert(ctx, newPosition); err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	if err := uow.UserRepository().AddBudget(ctx, user.ID, budgetDelta); err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}

	uow.EventBus().Publish(events.TransactionExecutedEvent{
		UserID:      user.ID,
		QuestionID:  question.ID,
		Kind:        kind,
		Side:        side,
		Amount:      amount,
		BudgetDelta: budgetDelta,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &TransactionResult{
		Transaction: transaction,
		Position:    newPosition,
		NewBudget:   current.Budget + budgetDelta,
	}, nil
}
