package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tally/models"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// apiMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes and OutcomePrices arrive double-encoded: JSON arrays serialized
// into JSON strings.
type apiMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Outcomes      string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // e.g. "[\"0.5\",\"0.5\"]"
	Active        flexBool `json:"active"`
	Closed        flexBool `json:"closed"`
	EndDate       string   `json:"endDate"`
	Description   string   `json:"description"`
}

// toQuestion maps one API record to a domain question snapshot. An error
// means the record is malformed and should be skipped, not that the fetch
// failed.
func (m *apiMarket) toQuestion(tag string) (*models.Question, error) {
	id, err := strconv.ParseInt(m.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", m.ID, err)
	}

	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return nil, fmt.Errorf("parse outcomes %q: %w", m.Outcomes, err)
	}
	var rawPrices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &rawPrices); err != nil {
		return nil, fmt.Errorf("parse outcome prices %q: %w", m.OutcomePrices, err)
	}
	if len(outcomes) != 2 || len(rawPrices) != 2 {
		return nil, fmt.Errorf("market %d is not binary: %d outcomes, %d prices", id, len(outcomes), len(rawPrices))
	}

	probs := make([]float64, 2)
	for i, raw := range rawPrices {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", raw, err)
		}
		probs[i] = p
	}

	endDate, err := time.Parse(time.RFC3339, m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date %q: %w", m.EndDate, err)
	}

	q := &models.Question{
		ID:           id,
		Question:     m.Question,
		OutcomeProbs: probs,
		Outcomes:     outcomes,
		Tag:          tag,
		Outcome:      models.OutcomeUnresolved,
		EndDate:      endDate,
		Description:  m.Description,
	}

	// The API never reports a winner directly; a closed market is treated
	// as resolved toward the side its price converged to.
	if bool(m.Closed) {
		if probs[0] >= probs[1] {
			q.Outcome = models.OutcomeYes
		} else {
			q.Outcome = models.OutcomeNo
		}
	}

	return q, nil
}
