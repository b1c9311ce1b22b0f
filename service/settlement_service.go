package service

import (
	"context"
	"fmt"
	"sort"

	"tally/config"
	"tally/events"
	"tally/models"
)

// settlementService implements the SettlementService interface
type settlementService struct {
	uowFactory UnitOfWorkFactory
	market     MarketDataSource
	cfg        *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, market MarketDataSource, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		market:     market,
		cfg:        cfg,
	}
}

// userAccumulator collects everything settlement did to one user across all
// refreshed questions, before user rows are attached for the report.
type userAccumulator struct {
	graded    []models.GradedResponse
	positions []models.PositionChange
}

type accumulatorSet struct {
	byUser map[int64]*userAccumulator
	order  []int64
}

func (a *accumulatorSet) get(userID int64) *userAccumulator {
	acc, ok := a.byUser[userID]
	if !ok {
		acc = &userAccumulator{}
		a.byUser[userID] = acc
		a.order = append(a.order, userID)
	}
	return acc
}

// Run refreshes every unresolved cached question from the market, scores
// predictions and liquidates positions on the ones that resolved, and
// returns the change report. Each question settles in its own transaction,
// so an interrupted run leaves earlier questions fully settled and later
// ones untouched for the next run.
func (s *settlementService) Run(ctx context.Context) (*models.ChangeReport, error) {
	ids, previous, err := s.loadActiveSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &models.ChangeReport{}, nil
	}

	fresh, err := s.market.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh questions: %w", err)
	}

	accum := &accumulatorSet{byUser: make(map[int64]*userAccumulator)}
	for i, id := range ids {
		if fresh[i] == nil {
			// Could not be refreshed this run; left for the next one.
			continue
		}
		prev := previous[id]
		if prev == nil {
			continue
		}
		if err := s.settleQuestion(ctx, prev, fresh[i], accum); err != nil {
			return nil, fmt.Errorf("failed to settle question %d: %w", id, err)
		}
	}

	return s.buildReport(ctx, accum)
}

// loadActiveSnapshots returns the ids of all cached unresolved questions
// together with their last-seen snapshots.
func (s *settlementService) loadActiveSnapshots(ctx context.Context) ([]int64, map[int64]*models.Question, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, err := uow.QuestionRepository().ListActiveIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list active questions: %w", err)
	}
	previous, err := uow.QuestionRepository().GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cached snapshots: %w", err)
	}
	return ids, previous, nil
}

// settleQuestion replaces one cached snapshot with the fresh one, records
// how every open position moved, and, if the question resolved, grades the
// latest responses and force-sells the positions. One transaction.
func (s *settlementService) settleQuestion(ctx context.Context, prev, fresh *models.Question, accum *accumulatorSet) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	positions, err := uow.PositionRepository().ListByQuestion(ctx, fresh.ID)
	if err != nil {
		return fmt.Errorf("failed to list positions: %w", err)
	}

	// Refreshed records carry no tag; keep the one we filed it under.
	if fresh.Tag == "" {
		fresh.Tag = prev.Tag
	}

	if err := uow.QuestionRepository().Replace(ctx, fresh); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	deltaYes := fresh.Price(models.SideYes) - prev.Price(models.SideYes)
	deltaNo := fresh.Price(models.SideNo) - prev.Price(models.SideNo)

	for _, pos := range positions {
		change := models.PositionChange{
			Question: fresh,
			StakeYes: pos.StakeYes,
			StakeNo:  pos.StakeNo,
			DeltaYes: deltaYes,
			DeltaNo:  deltaNo,
			Profit:   deltaYes*pos.StakeYes + deltaNo*pos.StakeNo,
		}
		if fresh.IsResolved() {
			if err := s.liquidate(ctx, uow, pos, fresh); err != nil {
				return err
			}
			change.Sold = true
		}
		accum.get(pos.UserID).positions = append(accum.get(pos.UserID).positions, change)
	}

	graded := 0
	if fresh.IsResolved() {
		graded, err = s.gradeResponses(ctx, uow, fresh, accum)
		if err != nil {
			return err
		}

		uow.EventBus().Publish(events.QuestionResolvedEvent{
			QuestionID: fresh.ID,
			Question:   fresh.Question,
			Outcome:    fresh.Outcome,
			Graded:     graded,
			Liquidated: len(positions),
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// liquidate force-sells a position's full stake on both sides at the
// resolved prices and removes the emptied row. A side whose price settled
// at zero expires worthless with no ledger entry.
func (s *settlementService) liquidate(ctx context.Context, uow UnitOfWork, pos *models.Position, q *models.Question) error {
	current := *pos
	for _, side := range []models.Side{models.SideYes, models.SideNo} {
		stake := current.Stake(side)
		if stake == 0 {
			continue
		}
		price := q.Price(side)
		if price <= 0 {
			if side == models.SideYes {
				current.StakeYes = 0
			} else {
				current.StakeNo = 0
			}
			continue
		}

		proceeds := current.SellCeiling(side, price)
		transaction, err := uow.TransactionRepository().Create(ctx, &models.Transaction{
			UserID:     pos.UserID,
			QuestionID: pos.QuestionID,
			Type:       models.TransactionSell,
			Side:       side,
			Amount:     proceeds,
		})
		if err != nil {
			return fmt.Errorf("failed to record forced sell: %w", err)
		}

		next, budgetDelta := current.Apply(transaction, price)
		current = *next
		if err := uow.UserRepository().AddBudget(ctx, pos.UserID, budgetDelta); err != nil {
			return fmt.Errorf("failed to credit forced sell: %w", err)
		}

		uow.EventBus().Publish(events.TransactionExecutedEvent{
			UserID:      pos.UserID,
			QuestionID:  pos.QuestionID,
			Kind:        models.TransactionSell,
			Side:        side,
			Amount:      proceeds,
			BudgetDelta: budgetDelta,
			Forced:      true,
		})
	}

	if err := uow.PositionRepository().Delete(ctx, &current); err != nil {
		return fmt.Errorf("failed to remove emptied position: %w", err)
	}
	return nil
}

// gradeResponses scores the latest response every user gave to a resolved
// question and bumps the accuracy counters. Earlier responses to the same
// question stay ungraded.
func (s *settlementService) gradeResponses(ctx context.Context, uow UnitOfWork, q *models.Question, accum *accumulatorSet) (int, error) {
	responses, err := uow.ResponseRepository().ListByQuestion(ctx, q.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list responses: %w", err)
	}

	latestByUser := make(map[int64]*models.Response)
	var userOrder []int64
	for _, resp := range responses {
		if _, seen := latestByUser[resp.UserID]; !seen {
			userOrder = append(userOrder, resp.UserID)
		}
		if current := latestByUser[resp.UserID]; current == nil || resp.CreatedAt.After(current.CreatedAt) {
			latestByUser[resp.UserID] = resp
		}
	}

	winner := q.Outcome.Winner()
	for _, userID := range userOrder {
		resp := latestByUser[userID]
		correct := resp.Answer == winner
		if err := uow.ResponseRepository().SetGrade(ctx, userID, q.ID, resp.CreatedAt, correct); err != nil {
			return 0, fmt.Errorf("failed to grade response for user %d: %w", userID, err)
		}

		correctInc, incorrectInc := 0, 1
		if correct {
			correctInc, incorrectInc = 1, 0
		}
		if err := uow.StatsRepository().Increment(ctx, userID, correctInc, incorrectInc); err != nil {
			return 0, fmt.Errorf("failed to bump stats for user %d: %w", userID, err)
		}

		accum.get(userID).graded = append(accum.get(userID).graded, models.GradedResponse{
			Question: q,
			Answer:   resp.Answer,
			Correct:  correct,
		})
	}
	return len(userOrder), nil
}

// buildReport attaches user rows to the accumulated changes and orders them
// by username for stable presentation.
func (s *settlementService) buildReport(ctx context.Context, accum *accumulatorSet) (*models.ChangeReport, error) {
	report := &models.ChangeReport{}
	if len(accum.order) == 0 {
		return report, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, userID := range accum.order {
		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
		}
		if user == nil {
			// Deleted mid-run; their graded rows and ledger entries are
			// already gone with them.
			continue
		}
		acc := accum.byUser[userID]
		report.Users = append(report.Users, &models.UserChange{
			User:      user,
			Graded:    acc.graded,
			Positions: acc.positions,
		})
	}

	sort.Slice(report.Users, func(i, j int) bool {
		return report.Users[i].User.Username < report.Users[j].User.Username
	})
	return report, nil
}
