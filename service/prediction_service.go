package service

import (
	"context"
	"fmt"

	"tally/config"
	"tally/events"
	"tally/models"
)

// predictionService implements the PredictionService interface
type predictionService struct {
	uowFactory UnitOfWorkFactory
	market     MarketDataSource
	cfg        *config.Config
}

// NewPredictionService creates a new prediction service
func NewPredictionService(uowFactory UnitOfWorkFactory, market MarketDataSource, cfg *config.Config) PredictionService {
	return &predictionService{
		uowFactory: uowFactory,
		market:     market,
		cfg:        cfg,
	}
}

// StartSession fetches the current question list, refreshes the cached
// snapshot of every question already present in the store, and annotates
// each question with the user's latest prior response.
func (s *predictionService) StartSession(ctx context.Context, user *models.User) (*PredictSession, error) {
	questions, err := s.market.GetQuestions(ctx, s.cfg.Tag, s.cfg.MaxQuestions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	questions = withinHorizon(questions, s.cfg.MaxTimeDeltaDays)
	if len(questions) == 0 {
		return &PredictSession{}, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session := &PredictSession{Questions: questions, Prior: make([]*models.Response, len(questions))}
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

		prior, err := uow.ResponseRepository().GetLatest(ctx, user.ID, q.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load prior response for question %d: %w", q.ID, err)
		}
		session.Prior[i] = prior
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return session, nil
}

// SubmitResponse caches the question snapshot and appends a new response
// row for the user. The caller expresses "keep my old answer" by simply
// not calling this; submission always writes.
func (s *predictionService) SubmitResponse(ctx context.Context, user *models.User, question *models.Question, answer models.Side, explanation *string) (*models.Response, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := validateReferences(ctx, uow, user.ID, question); err != nil {
		return nil, err
	}

	if err := uow.QuestionRepository().Replace(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to cache question %d: %w", question.ID, err)
	}

	response, err := uow.ResponseRepository().Create(ctx, &models.Response{
		UserID:      user.ID,
		QuestionID:  question.ID,
		Answer:      answer,
		Explanation: explanation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	uow.EventBus().Publish(events.ResponseRecordedEvent{
		UserID:     user.ID,
		QuestionID: question.ID,
		Answer:     answer,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return response, nil
}

// validateReferences rejects writes referencing a nonexistent user before
// anything hits the log tables. The question reference is satisfied by
// caching the snapshot in the same transaction, so only a user id can
// actually dangle; both are still reported for parity with direct misuse.
func validateReferences(ctx context.Context, uow UnitOfWork, userID int64, question *models.Question) error {
	userExists, err := uow.UserRepository().Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to validate user %d: %w", userID, err)
	}
	if !userExists {
		return &models.InvalidReferenceError{
			UserID:      userID,
			QuestionID:  question.ID,
			MissingUser: true,
		}
	}
	return nil
}
