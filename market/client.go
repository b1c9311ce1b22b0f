package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"tally/models"
	"tally/service"
)

// tagIDs maps the supported question categories to Gamma API tag ids.
var tagIDs = map[string]int{
	"Sports":   1,
	"Politics": 2,
	"Other":    3,
}

// Client is the REST client for the Polymarket Gamma API. It maps API
// records to domain question snapshots and silently drops records it
// cannot parse.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.MarketDataSource = (*Client)(nil)

// NewClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetQuestions returns up to limit open questions for a tag, highest volume
// first.
func (c *Client) GetQuestions(ctx context.Context, tag string, limit int) ([]*models.Question, error) {
	tagID, ok := tagIDs[tag]
	if !ok {
		return nil, fmt.Errorf("market: unknown tag %q", tag)
	}

	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("tag_id", strconv.Itoa(tagID))
	params.Set("ascending", "false")
	params.Set("order", "volume")

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("market: get questions: %w", err)
	}

	var records []apiMarket
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("market: decode questions: %w", err)
	}

	questions := make([]*models.Question, 0, len(records))
	for i := range records {
		if !bool(records[i].Active) {
			continue
		}
		q, err := records[i].toQuestion(tag)
		if err != nil {
			log.WithFields(log.Fields{
				"marketId": records[i].ID,
				"error":    err,
			}).Warn("Skipping unparsable market record")
			continue
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// GetQuestionsByIDs returns one snapshot per requested id, in order. An id
// the API no longer returns, or whose record cannot be parsed, yields a nil
// entry.
func (c *Client) GetQuestionsByIDs(ctx context.Context, ids []int64) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	for _, id := range ids {
		params.Add("id", strconv.FormatInt(id, 10))
	}

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("market: get questions by ids: %w", err)
	}

	var records []apiMarket
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("market: decode questions: %w", err)
	}

	byID := make(map[int64]*models.Question, len(records))
	for i := range records {
		q, err := records[i].toQuestion("")
		if err != nil {
			log.WithFields(log.Fields{
				"marketId": records[i].ID,
				"error":    err,
			}).Warn("Skipping unparsable market record")
			continue
		}
		byID[q.ID] = q
	}

	questions := make([]*models.Question, len(ids))
	for i, id := range ids {
		questions[i] = byID[id]
	}
	return questions, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrNotFound, string(body))
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
