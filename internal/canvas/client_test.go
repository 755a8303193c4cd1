package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestActiveCoursesFollowsPagination(t *testing.T) {
	var authSeen string
	mux := http.NewServeMux()
	var serverURL string

	mux.HandleFunc("/api/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		authSeen = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"id":2,"name":"Biology","course_code":"BIO-1"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses?page=2>; rel="next", <%s/api/v1/courses?page=1>; rel="first"`, serverURL, serverURL))
		fmt.Fprint(w, `[{"id":1,"name":"Algebra I","course_code":"ALG-1","enrollments":[{"type":"student","computed_current_score":91.2,"computed_current_grade":"A-"}]}]`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	serverURL = srv.URL

	client := NewClient(srv.URL, "secret-token")
	courses, err := client.ActiveCourses(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2 across pages", len(courses))
	}
	if courses[0].Name != "Algebra I" || courses[1].Name != "Biology" {
		t.Errorf("courses = %+v", courses)
	}
	if authSeen != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", authSeen)
	}

	score, ok := courses[0].CurrentScore()
	if !ok || score != 91.2 {
		t.Errorf("CurrentScore = %v/%v, want 91.2", score, ok)
	}
	if _, ok := courses[1].CurrentScore(); ok {
		t.Error("course without enrollments should report no score")
	}
}

func TestMissingSubmissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/self/missing_submissions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":10,"name":"Worksheet 4","course_id":1,"due_at":"2026-03-09T23:59:00Z","points_possible":20}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	missing, err := client.MissingSubmissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0].Name != "Worksheet 4" {
		t.Fatalf("missing = %+v", missing)
	}
	if missing[0].DueAt == nil || missing[0].DueAt.Day() != 9 {
		t.Errorf("due_at = %v", missing[0].DueAt)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"Invalid access token."}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad")
	_, err := client.ActiveCourses(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 401")
	}
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, "tok")
	start := time.Now()
	if _, err := client.Todo(ctx); err == nil {
		t.Fatal("expected a context error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not abort the request promptly")
	}
}

func TestNextLinkParsing(t *testing.T) {
	header := `<https://school.test/api/v1/courses?page=3>; rel="next", <https://school.test/api/v1/courses?page=9>; rel="last"`
	if got := nextLink(header); got != "https://school.test/api/v1/courses?page=3" {
		t.Errorf("nextLink = %q", got)
	}
	if got := nextLink(`<https://school.test/x?page=9>; rel="last"`); got != "" {
		t.Errorf("nextLink without next = %q, want empty", got)
	}
	if got := nextLink(""); got != "" {
		t.Errorf("nextLink of empty header = %q", got)
	}
}

func TestAssignmentSubmitted(t *testing.T) {
	cases := []struct {
		state string
		want  bool
	}{
		{"submitted", true},
		{"graded", true},
		{"pending_review", true},
		{"unsubmitted", false},
		{"", false},
	}
	for _, c := range cases {
		a := Assignment{Submission: &Submission{WorkflowState: c.state}}
		if a.Submitted() != c.want {
			t.Errorf("Submitted(%q) = %v, want %v", c.state, a.Submitted(), c.want)
		}
	}
	if (Assignment{}).Submitted() {
		t.Error("assignment with no submission should not count as submitted")
	}
}
