package service

import (
	"context"
	"fmt"

	"tally/config"
	"tally/events"
	"tally/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cfg *config.Config) UserService {
	return &userService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// GetOrCreate retrieves an existing user or creates a new one with the
// starting budget and a zeroed stats row.
func (s *userService) GetOrCreate(ctx context.Context, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	// User doesn't exist; the unique constraint on username prevents
	// duplicates racing in from elsewhere.
	user, err = uow.UserRepository().Create(ctx, username, s.cfg.StartingBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := uow.StatsRepository().CreateDefault(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to create default stats: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:         user.ID,
		Username:       user.Username,
		StartingBudget: user.Budget,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// ListUsers returns every user with their stats, ranked by budget.
func (s *userService) ListUsers(ctx context.Context) ([]*models.UserOverview, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	overviews := make([]*models.UserOverview, 0, len(users))
	for _, user := range users {
		stats, err := uow.StatsRepository().Get(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get stats for user %d: %w", user.ID, err)
		}
		if stats == nil {
			// Stats rows are created with the user; a missing one is
			// tolerated as all zeroes rather than failing the listing.
			stats = &models.UserStats{UserID: user.ID}
		}
		overviews = append(overviews, &models.UserOverview{User: user, Stats: stats})
	}

	return overviews, nil
}

// History assembles the read-only projection behind the history command:
// the user's latest response per question with its grade, plus open
// positions against their cached snapshots.
func (s *userService) History(ctx context.Context, username string) (*models.UserHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
	}

	stats, err := uow.StatsRepository().Get(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	if stats == nil {
		stats = &models.UserStats{UserID: user.ID}
	}

	responses, err := uow.ResponseRepository().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	// Keep only the latest response per question, preserving first-seen
	// question order.
	latestByQuestion := make(map[int64]*models.Response)
	var questionOrder []int64
	for _, resp := range responses {
		if _, seen := latestByQuestion[resp.QuestionID]; !seen {
			questionOrder = append(questionOrder, resp.QuestionID)
		}
		if current := latestByQuestion[resp.QuestionID]; current == nil || resp.CreatedAt.After(current.CreatedAt) {
			latestByQuestion[resp.QuestionID] = resp
		}
	}

	positions, err := uow.PositionRepository().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	ids := make([]int64, 0, len(questionOrder)+len(positions))
	ids = append(ids, questionOrder...)
	for _, p := range positions {
		ids = append(ids, p.QuestionID)
	}
	questions, err := uow.QuestionRepository().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	history := &models.UserHistory{User: user, Stats: stats}
	for _, qid := range questionOrder {
		history.Responses = append(history.Responses, models.HistoryEntry{
			Response: latestByQuestion[qid],
			Question: questions[qid],
		})
	}
	for _, p := range positions {
		history.Positions = append(history.Positions, models.PositionEntry{
			Position: p,
			Question: questions[p.QuestionID],
		})
	}

	return history, nil
}
