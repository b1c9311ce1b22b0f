package cli

import (
	"context"
	"fmt"
	"io"

	"tally/models"
	"tally/service"
)

// App wires the interactive flows to the service layer. Every command is
// one short session: connect, talk to the user, write, exit.
type App struct {
	users      service.UserService
	prediction service.PredictionService
	betting    service.BettingService
	settlement service.SettlementService
	prompter   *Prompter
	out        io.Writer
}

// NewApp creates the CLI application.
func NewApp(users service.UserService, prediction service.PredictionService, betting service.BettingService, settlement service.SettlementService, in io.Reader, out io.Writer) *App {
	return &App{
		users:      users,
		prediction: prediction,
		betting:    betting,
		settlement: settlement,
		prompter:   NewPrompter(in, out),
		out:        out,
	}
}

// Predict runs the predict flow: pick a question, answer Yes or No, and
// optionally explain the answer.
func (a *App) Predict(ctx context.Context, username string) error {
	user, err := a.users.GetOrCreate(ctx, username)
	if err != nil {
		return err
	}

	session, err := a.prediction.StartSession(ctx, user)
	if err != nil {
		return err
	}
	if len(session.Questions) == 0 {
		fmt.Fprintln(a.out, "No open questions right now")
		return nil
	}

	renderPredictTable(a.out, session)
	choice, err := a.prompter.SelectNumber("Select a question by number", len(session.Questions))
	if err != nil {
		return err
	}
	question := session.Questions[choice-1]
	prior := session.Prior[choice-1]

	fmt.Fprintf(a.out, "%s %s\n", question.Question, question.EndDate.Format("2006-01-02"))
	if prior != nil {
		fmt.Fprintf(a.out, "You answered [%s] before\n", prior.Answer)
		if prior.Explanation != nil {
			fmt.Fprintf(a.out, "Your explanation for it was:\n\t%s\n", *prior.Explanation)
		}
		change, err := a.prompter.Confirm("Do you wish to change anything about your previous answer?")
		if err != nil {
			return err
		}
		if !change {
			return nil
		}
	}

	answer := models.SideNo
	yes, err := a.prompter.Confirm(question.Question)
	if err != nil {
		return err
	}
	if yes {
		answer = models.SideYes
	}

	var explanation *string
	wantExplain, err := a.prompter.Confirm("Do you wish to give an explanation for your choice?")
	if err != nil {
		return err
	}
	if wantExplain {
		text, err := a.prompter.Line("Write your explanation below")
		if err != nil {
			return err
		}
		if text != "" {
			explanation = &text
		}
	}

	if _, err := a.prediction.SubmitResponse(ctx, user, question, answer, explanation); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded [%s] for: %s\n", answer, question.Question)
	return nil
}

// Bet runs the bet flow: pick a question, pick a side, pick buy or sell
// within the allowed ceiling, and execute.
func (a *App) Bet(ctx context.Context, username string) error {
	user, err := a.users.GetOrCreate(ctx, username)
	if err != nil {
		return err
	}

	session, err := a.betting.StartSession(ctx, user)
	if err != nil {
		return err
	}
	if len(session.Questions) == 0 {
		fmt.Fprintln(a.out, "No open questions right now")
		return nil
	}

	renderBetTable(a.out, session.Questions, session.Positions)
	choice, err := a.prompter.SelectNumber("Select a question by number", len(session.Questions))
	if err != nil {
		return err
	}

	return a.trade(ctx, user, session.Questions[choice-1], session.Positions[choice-1])
}

// Sell runs the sell flow over the user's open positions at their last
// cached prices.
func (a *App) Sell(ctx context.Context, username string) error {
	user, err := a.users.GetOrCreate(ctx, username)
	if err != nil {
		return err
	}

	session, err := a.betting.SellSession(ctx, user)
	if err != nil {
		return err
	}
	if len(session.Positions) == 0 {
		fmt.Fprintln(a.out, "You have no open positions")
		return nil
	}

	renderBetTable(a.out, session.Questions, session.Positions)
	choice, err := a.prompter.SelectNumber("Select a position by number", len(session.Positions))
	if err != nil {
		return err
	}

	return a.trade(ctx, user, session.Questions[choice-1], session.Positions[choice-1])
}

// trade drives one buy-or-sell exchange on a chosen question.
func (a *App) trade(ctx context.Context, user *models.User, question *models.Question, position *models.Position) error {
	fmt.Fprintf(a.out, "%s %s\n", question.Question, question.EndDate.Format("2006-01-02"))

	side := models.SideNo
	yes, err := a.prompter.Confirm(question.Question)
	if err != nil {
		return err
	}
	if yes {
		side = models.SideYes
	}

	price := question.Price(side)
	kind := models.TransactionBuy
	max := user.Budget

	if position != nil && position.Stake(side) > 0 {
		ceiling := position.SellCeiling(side, price)
		fmt.Fprintf(a.out, "You can sell up to %s$ and buy up to %s$\n", formatFloat(ceiling), formatFloat(user.Budget))
		chosen, err := a.prompter.Choice("Select transaction type", "buy", "sell")
		if err != nil {
			return err
		}
		if chosen == "sell" {
			kind = models.TransactionSell
			max = ceiling
		}
	} else if position != nil {
		fmt.Fprintln(a.out, "You don't have any stake to sell for this answer; defaulting to a buy.")
	} else {
		fmt.Fprintln(a.out, "No existing position found. Only buying is available.")
	}

	amount, ok, err := a.prompter.Amount(max)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	result, err := a.betting.ExecuteTransaction(ctx, user, question, kind, side, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Executed %s of %s$ on [%s]\n", kind, formatFloat(amount), side)
	fmt.Fprintf(a.out, "Stakes now Yes: %s No: %s, budget %s$\n",
		formatFloat(result.Position.StakeYes), formatFloat(result.Position.StakeNo), formatFloat(result.NewBudget))
	return nil
}

// Update runs settlement and prints the change report.
func (a *App) Update(ctx context.Context) error {
	report, err := a.settlement.Run(ctx)
	if err != nil {
		return err
	}
	RenderChangeReport(a.out, report)
	return nil
}

// History prints one user's answered questions, positions, and stats.
func (a *App) History(ctx context.Context, username string) error {
	history, err := a.users.History(ctx, username)
	if err != nil {
		return err
	}
	RenderHistory(a.out, history)
	return nil
}

// Users prints the leaderboard.
func (a *App) Users(ctx context.Context) error {
	overviews, err := a.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	RenderUsers(a.out, overviews)
	return nil
}
