package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dpogorelov/trackbot/internal/domain"
)

// TimeEntry is the finalized record sent to the tracker.
type TimeEntry struct {
	IssueID int64
	SpentOn time.Time
	Hours   float64
	Comment string
}

// Client provides the tracker operations the wizard needs.
type Client interface {
	// VerifyCredential checks the key against the tracker and returns the
	// tracker-side login it belongs to.
	VerifyCredential(ctx context.Context, apiKey string) (string, error)

	// ListOpenIssues returns the open issues assigned to the key's user.
	ListOpenIssues(ctx context.Context, apiKey string) ([]domain.IssueRef, error)

	// CreateTimeEntry writes one time entry and returns the tracker's
	// record id.
	CreateTimeEntry(ctx context.Context, apiKey string, entry TimeEntry) (string, error)
}

// restClient implements Client over the Redmine REST JSON API.
type restClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for the configured Redmine instance.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &restClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type currentUserResponse struct {
	User struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	} `json:"user"`
}

type issuesResponse struct {
	Issues []struct {
		ID      int64  `json:"id"`
		Subject string `json:"subject"`
	} `json:"issues"`
}

// timeEntryRequest is the JSON body sent to POST /time_entries.json.
type timeEntryRequest struct {
	TimeEntry struct {
		IssueID int64   `json:"issue_id"`
		SpentOn string  `json:"spent_on"`
		Hours   float64 `json:"hours"`
		Comment string  `json:"comments"`
	} `json:"time_entry"`
}

type timeEntryResponse struct {
	TimeEntry struct {
		ID int64 `json:"id"`
	} `json:"time_entry"`
}

func (c *restClient) VerifyCredential(ctx context.Context, apiKey string) (string, error) {
	var resp currentUserResponse
	err := c.call(ctx, "verify_credential", http.MethodGet, "/users/current.json", apiKey, nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.User.Login, nil
}

func (c *restClient) ListOpenIssues(ctx context.Context, apiKey string) ([]domain.IssueRef, error) {
	path := "/issues.json?assigned_to_id=me&status_id=open&limit=" + strconv.Itoa(c.cfg.OpenIssuesLimit)
	var resp issuesResponse
	if err := c.call(ctx, "list_open_issues", http.MethodGet, path, apiKey, nil, &resp); err != nil {
		return nil, err
	}

	refs := make([]domain.IssueRef, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		refs = append(refs, domain.IssueRef{ID: issue.ID, Name: issue.Subject})
	}
	return refs, nil
}

func (c *restClient) CreateTimeEntry(ctx context.Context, apiKey string, entry TimeEntry) (string, error) {
	var body timeEntryRequest
	body.TimeEntry.IssueID = entry.IssueID
	body.TimeEntry.SpentOn = entry.SpentOn.Format("2006-01-02")
	body.TimeEntry.Hours = entry.Hours
	body.TimeEntry.Comment = entry.Comment

	var resp timeEntryResponse
	if err := c.call(ctx, "create_time_entry", http.MethodPost, "/time_entries.json", apiKey, body, &resp); err != nil {
		return "", err
	}
	return strconv.FormatInt(resp.TimeEntry.ID, 10), nil
}

// call performs one API request, mapping HTTP failures onto the package's
// error taxonomy and reporting the outcome to the observer.
func (c *restClient) call(ctx context.Context, operation, method, path, apiKey string, body, out any) error {
	start := time.Now()
	err := c.doRequest(ctx, method, path, apiKey, body, out)
	event := CallEvent{
		Operation: operation,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	}
	c.observer.OnCallComplete(event)
	return err
}

func (c *restClient) doRequest(ctx context.Context, method, path, apiKey string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Redmine-API-Key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrRemote, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuth
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, truncate(respBody, 200))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", ErrRemote, err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "AUTH"
	case errors.Is(err, ErrRemote):
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}
