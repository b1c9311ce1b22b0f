package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"tally/cli"
	"tally/config"
	"tally/database"
	"tally/events"
	"tally/market"
	"tally/repository"
	"tally/service"
)

// Usage describes the available subcommands.
const Usage = `usage: tally <command> [args]

commands:
  predict <username>   answer a question Yes or No
  bet <username>       buy or sell shares on a question
  sell <username>      sell out of an open position
  update               refresh questions, score predictions, settle positions
  history <username>   show a user's answers, positions, and stats
  users                show the leaderboard
  migrate <up|down|status>
`

// Run wires the application together and dispatches one subcommand.
func Run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Environment == "development" {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	subscribeLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	marketClient := market.NewClient(cfg.GammaAPIURL)

	userService := service.NewUserService(uowFactory, cfg)
	predictionService := service.NewPredictionService(uowFactory, marketClient, cfg)
	bettingService := service.NewBettingService(uowFactory, marketClient, cfg)
	settlementService := service.NewSettlementService(uowFactory, marketClient, cfg)

	app := cli.NewApp(userService, predictionService, bettingService, settlementService, os.Stdin, os.Stdout)

	command := args[0]
	switch command {
	case "predict", "bet", "sell", "history":
		if len(args) < 2 {
			return fmt.Errorf("usage: tally %s <username>", command)
		}
	}

	switch command {
	case "predict":
		return app.Predict(ctx, args[1])
	case "bet":
		return app.Bet(ctx, args[1])
	case "sell":
		return app.Sell(ctx, args[1])
	case "update":
		return app.Update(ctx)
	case "history":
		return app.History(ctx, args[1])
	case "users":
		return app.Users(ctx)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, Usage)
	}
}

// subscribeLogging records every domain event in the structured log.
func subscribeLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) {
		ev := e.(events.UserCreatedEvent)
		log.WithFields(log.Fields{
			"userId":   ev.UserID,
			"username": ev.Username,
			"budget":   ev.StartingBudget,
		}).Info("User created")
	})

	bus.Subscribe(events.EventTypeResponseRecorded, func(ctx context.Context, e events.Event) {
		ev := e.(events.ResponseRecordedEvent)
		log.WithFields(log.Fields{
			"userId":     ev.UserID,
			"questionId": ev.QuestionID,
			"answer":     ev.Answer,
		}).Info("Response recorded")
	})

	bus.Subscribe(events.EventTypeTransactionExecuted, func(ctx context.Context, e events.Event) {
		ev := e.(events.TransactionExecutedEvent)
		log.WithFields(log.Fields{
			"userId":      ev.UserID,
			"questionId":  ev.QuestionID,
			"kind":        ev.Kind,
			"side":        ev.Side,
			"amount":      ev.Amount,
			"budgetDelta": ev.BudgetDelta,
			"forced":      ev.Forced,
		}).Info("Transaction executed")
	})

	bus.Subscribe(events.EventTypeQuestionResolved, func(ctx context.Context, e events.Event) {
		ev := e.(events.QuestionResolvedEvent)
		log.WithFields(log.Fields{
			"questionId": ev.QuestionID,
			"outcome":    ev.Outcome,
			"graded":     ev.Graded,
			"liquidated": ev.Liquidated,
		}).Info("Question resolved")
	})
}
