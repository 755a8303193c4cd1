// Package canvas is a read-only client for the Canvas LMS REST API. It
// covers the handful of endpoints the assistant needs and follows
// Link-header pagination so large course loads come back whole.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// perPage is sent on every list request. Canvas caps it at 100.
const perPage = 50

// Client calls the Canvas REST API with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Client for the Canvas instance at baseURL
// (e.g. https://school.instructure.com).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{},
	}
}

// ActiveCourses returns the student's active enrollments with current
// scores included.
func (c *Client) ActiveCourses(ctx context.Context) ([]Course, error) {
	q := url.Values{}
	q.Set("enrollment_state", "active")
	q.Add("include[]", "total_scores")
	var courses []Course
	if err := c.getPaginated(ctx, "/api/v1/courses", q, func(page []byte) error {
		var batch []Course
		if err := json.Unmarshal(page, &batch); err != nil {
			return err
		}
		courses = append(courses, batch...)
		return nil
	}); err != nil {
		return nil, err
	}
	return courses, nil
}

// MissingSubmissions returns assignments Canvas has flagged as missing.
func (c *Client) MissingSubmissions(ctx context.Context) ([]Assignment, error) {
	q := url.Values{}
	q.Add("include[]", "course")
	var assignments []Assignment
	if err := c.getPaginated(ctx, "/api/v1/users/self/missing_submissions", q, func(page []byte) error {
		var batch []Assignment
		if err := json.Unmarshal(page, &batch); err != nil {
			return err
		}
		assignments = append(assignments, batch...)
		return nil
	}); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Todo returns the user's todo feed: upcoming submittable work.
func (c *Client) Todo(ctx context.Context) ([]TodoItem, error) {
	var items []TodoItem
	if err := c.getPaginated(ctx, "/api/v1/users/self/todo", nil, func(page []byte) error {
		var batch []TodoItem
		if err := json.Unmarshal(page, &batch); err != nil {
			return err
		}
		items = append(items, batch...)
		return nil
	}); err != nil {
		return nil, err
	}
	return items, nil
}

// CourseAssignments returns all assignments for a course with the
// student's submission attached.
func (c *Client) CourseAssignments(ctx context.Context, courseID int) ([]Assignment, error) {
	q := url.Values{}
	q.Add("include[]", "submission")
	path := fmt.Sprintf("/api/v1/courses/%d/assignments", courseID)
	var assignments []Assignment
	if err := c.getPaginated(ctx, path, q, func(page []byte) error {
		var batch []Assignment
		if err := json.Unmarshal(page, &batch); err != nil {
			return err
		}
		assignments = append(assignments, batch...)
		return nil
	}); err != nil {
		return nil, err
	}
	return assignments, nil
}

// getPaginated fetches path and every rel="next" page after it, handing
// each raw body to collect. Single attempt per page, no retries.
func (c *Client) getPaginated(ctx context.Context, path string, q url.Values, collect func(page []byte) error) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", fmt.Sprint(perPage))
	next := c.baseURL + path + "?" + q.Encode()

	for next != "" {
		body, link, err := c.get(ctx, next)
		if err != nil {
			return err
		}
		if err := collect(body); err != nil {
			return fmt.Errorf("decoding canvas response from %s: %w", path, err)
		}
		next = nextLink(link)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) (body []byte, linkHeader string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating canvas request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading canvas response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("canvas returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, resp.Header.Get("Link"), nil
}

// nextLink pulls the rel="next" URL out of an RFC 5988 Link header, or
// returns "" on the last page.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		urlPart := strings.Trim(strings.TrimSpace(section[0]), "<>")
		for _, param := range section[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return urlPart
			}
		}
	}
	return ""
}
