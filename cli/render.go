package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tally/models"
	"tally/service"
)

const (
	colorGreen = "\033[92m"
	colorRed   = "\033[91m"
	colorReset = "\033[0m"

	priceBarWidth = 10
)

// formatFloat renders a float with its round-off noise trimmed and always at
// least one decimal, so 10 prints as 10.0 and 0.6-0.8 prints as -0.2.
func formatFloat(v float64) string {
	r := math.Round(v*1e6) / 1e6
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// drawBar renders the Yes price as a filled bar, e.g. "####------ 0.4".
func drawBar(priceYes float64, width int) string {
	filled := int(math.Round(priceYes * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + " " + formatFloat(priceYes)
}

func maxQuestionLen(questions []*models.Question) int {
	max := len("Question")
	for _, q := range questions {
		if len(q.Question) > max {
			max = len(q.Question)
		}
	}
	return max
}

// renderPredictTable lists questions with the user's previous answer, if any.
func renderPredictTable(w io.Writer, session *service.PredictSession) {
	width := maxQuestionLen(session.Questions)
	fmt.Fprintf(w, "\n| Nr  | EndDate    | Ans | %-*s |\n", width, "Question")
	fmt.Fprintf(w, "|-----|------------|-----|-%s-|\n", strings.Repeat("-", width))
	for i, q := range session.Questions {
		status := "   "
		if prior := session.Prior[i]; prior != nil {
			status = fmt.Sprintf("[%s]", string(prior.Answer)[:1])
		}
		fmt.Fprintf(w, "| %-3d | %s | %s | %-*s |\n", i+1, q.EndDate.Format("2006-01-02"), status, width, q.Question)
	}
}

// renderBetTable lists questions with the user's stakes and current prices.
func renderBetTable(w io.Writer, questions []*models.Question, positions []*models.Position) {
	width := maxQuestionLen(questions)
	barWidth := priceBarWidth + len(" 0.00")
	fmt.Fprintf(w, "\n| Nr  | EndDate    | %-*s | StakeYes   | %-*s | StakeNo    |\n", width, "Question", barWidth, "Prices(Yes)")
	fmt.Fprintf(w, "|-----|------------|-%s-|------------|-%s-|------------|\n", strings.Repeat("-", width), strings.Repeat("-", barWidth))
	for i, q := range questions {
		stakeYes, stakeNo := "", ""
		if pos := positions[i]; pos != nil {
			stakeYes = formatFloat(math.Round(pos.StakeYes*10) / 10)
			stakeNo = formatFloat(math.Round(pos.StakeNo*10) / 10)
		}
		fmt.Fprintf(w, "| %-3d | %s | %-*s | %-10s | %-*s | %-10s |\n",
			i+1, q.EndDate.Format("2006-01-02"), width, q.Question,
			stakeYes, barWidth, drawBar(q.Price(models.SideYes), priceBarWidth), stakeNo)
	}
}

// RenderChangeReport prints the result of a settlement run: first each
// user's newly scored predictions, then how their positions moved.
func RenderChangeReport(w io.Writer, report *models.ChangeReport) {
	if report.IsEmpty() {
		fmt.Fprintln(w, "Everything up to date")
		return
	}

	for _, uc := range report.Users {
		if len(uc.Graded) == 0 {
			continue
		}
		fmt.Fprintf(w, "User %s had %d right and %d wrong\n", uc.User.Username, uc.CorrectCount(), uc.IncorrectCount())
		fmt.Fprintln(w, "Detailed description:")
		for _, g := range uc.Graded {
			color := colorRed
			if g.Correct {
				color = colorGreen
			}
			fmt.Fprintf(w, "\tQuestion: %s %s[%s]%s\n", g.Question.Question, color, g.Answer, colorReset)
		}
	}

	for _, uc := range report.Users {
		if len(uc.Positions) == 0 {
			continue
		}
		fmt.Fprintln(w, uc.User.Username)
		for _, pc := range uc.Positions {
			sold := ""
			if pc.Sold {
				sold = "Sold"
			}
			fmt.Fprintf(w, "Question: %s StakeYes: %s DeltaYes: %s StakeNo: %s DeltaNo: %s Profit: %s %s\n",
				pc.Question.Question,
				formatFloat(pc.StakeYes), formatFloat(pc.DeltaYes),
				formatFloat(pc.StakeNo), formatFloat(pc.DeltaNo),
				formatFloat(pc.Profit), sold)
		}
		fmt.Fprintf(w, "NetProfit: %s\n", formatFloat(uc.NetProfit()))
	}
}

// RenderHistory prints a user's answered questions colored by how they were
// graded, followed by their open positions and lifetime stats.
func RenderHistory(w io.Writer, h *models.UserHistory) {
	fmt.Fprintf(w, "User [%s]\n", h.User.Username)
	fmt.Fprintln(w, "Responses:")
	for _, entry := range h.Responses {
		color := colorReset
		switch entry.Response.Correct {
		case models.GradeCorrect:
			color = colorGreen
		case models.GradeIncorrect:
			color = colorRed
		}
		question := fmt.Sprintf("question %d", entry.Response.QuestionID)
		if entry.Question != nil {
			question = entry.Question.Question
		}
		fmt.Fprintf(w, "\t%s %s[%s]%s\n", question, color, entry.Response.Answer, colorReset)
	}

	if len(h.Positions) > 0 {
		fmt.Fprintln(w, "Positions:")
		for _, entry := range h.Positions {
			question := fmt.Sprintf("question %d", entry.Position.QuestionID)
			if entry.Question != nil {
				question = entry.Question.Question
			}
			fmt.Fprintf(w, "\t%s StakeYes: %s StakeNo: %s\n", question,
				formatFloat(entry.Position.StakeYes), formatFloat(entry.Position.StakeNo))
		}
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "User: [%s]\n", h.User.Username)
	fmt.Fprintf(w, "Budget: %s$\n", formatFloat(h.User.Budget))
	fmt.Fprintf(w, "Stats: %s%d[+]%s %s%d[-]%s\n",
		colorGreen, h.Stats.CorrectAnswers, colorReset,
		colorRed, h.Stats.IncorrectAnswers, colorReset)
}

// RenderUsers prints the leaderboard, richest first.
func RenderUsers(w io.Writer, overviews []*models.UserOverview) {
	if len(overviews) == 0 {
		fmt.Fprintln(w, "No users yet")
		return
	}
	width := len("Username")
	for _, o := range overviews {
		if len(o.User.Username) > width {
			width = len(o.User.Username)
		}
	}
	fmt.Fprintf(w, "| %-*s | Budget     | Right | Wrong |\n", width, "Username")
	fmt.Fprintf(w, "|-%s-|------------|-------|-------|\n", strings.Repeat("-", width))
	for _, o := range overviews {
		fmt.Fprintf(w, "| %-*s | %-10s | %-5d | %-5d |\n", width, o.User.Username,
			formatFloat(o.User.Budget), o.Stats.CorrectAnswers, o.Stats.IncorrectAnswers)
	}
}
