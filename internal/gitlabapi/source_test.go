package gitlabapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cam3ron2/review-stats/internal/restclient"
	"github.com/cam3ron2/review-stats/internal/review"
	"github.com/cam3ron2/review-stats/internal/window"
)

const projectPath = "/api/v4/projects/group%2Fproject/merge_requests"

const mixedNotes = `[
	{"id":1,"body":"requested review from @bob","system":true,"created_at":"2024-01-01T09:30:00.000Z"},
	{"id":2,"body":"added 1 commit","system":true,"created_at":"2024-01-01T10:00:00.000Z"},
	{"id":3,"body":"Please add a test","system":false,"author":{"username":"alice"},"created_at":"2024-01-02T09:00:00.000Z"},
	{"id":4,"body":"approved this merge request","system":true,"created_at":"2024-01-02T11:00:00.000Z"}
]`

// route serves one endpoint under projectPath. pages holds one body per
// page; every page but the last advertises X-Next-Page.
type route struct {
	status int
	pages  []string
}

func newProjectServer(t *testing.T, routes map[string]route) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer glpat" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"401 Unauthorized"}`)
			return
		}
		rt, ok := routes[strings.TrimPrefix(r.URL.EscapedPath(), projectPath)]
		if !ok || !strings.HasPrefix(r.URL.EscapedPath(), projectPath) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"404 Not found"}`)
			return
		}
		if rt.status != 0 {
			w.WriteHeader(rt.status)
			fmt.Fprint(w, `{"message":"failed"}`)
			return
		}

		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			page, _ = strconv.Atoi(raw)
		}
		if page < 1 || page > len(rt.pages) {
			fmt.Fprint(w, `[]`)
			return
		}
		if page < len(rt.pages) {
			w.Header().Set("X-Next-Page", strconv.Itoa(page+1))
		}
		fmt.Fprint(w, rt.pages[page-1])
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestSource(t *testing.T, server *httptest.Server, doer restclient.HTTPDoer) *Source {
	t.Helper()

	if doer == nil {
		doer = server.Client()
	}
	client, err := NewClient(server.URL+"/api/v4", "glpat", 5*time.Second, doer)
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	source, err := NewSource(client, "group/project")
	if err != nil {
		t.Fatalf("NewSource() unexpected error: %v", err)
	}
	return source
}

// failingDoer fails requests whose path ends with suffix and forwards the rest.
type failingDoer struct {
	next   restclient.HTTPDoer
	suffix string
}

func (d failingDoer) Do(req *http.Request) (*http.Response, error) {
	if strings.HasSuffix(req.URL.Path, d.suffix) {
		return nil, errors.New("connection reset")
	}
	return d.next.Do(req)
}

func mergeRequestPage(startIID, count int) string {
	items := make([]string, 0, count)
	for i := range count {
		items = append(items, `{"iid":`+strconv.Itoa(startIID+i)+`,"created_at":"2024-01-02T10:00:00.000Z"}`)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://gitlab.com/api/v4", "glpat", time.Second, nil)
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	if _, err := NewSource(nil, "g/p"); err == nil {
		t.Fatalf("NewSource(nil client) expected error, got nil")
	}
	if _, err := NewSource(client, " "); err == nil {
		t.Fatalf("NewSource(empty project) expected error, got nil")
	}
}

func TestSourceListRequests(t *testing.T) {
	t.Parallel()

	w, err := window.Parse("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("window.Parse() unexpected error: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if r.URL.EscapedPath() != projectPath ||
			query.Get("state") != "all" ||
			query.Get("per_page") != "100" ||
			query.Get("created_after") != "2024-01-01T00:00:00Z" ||
			!strings.HasPrefix(query.Get("created_before"), "2024-01-31T23:59:59") {
			rw.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(rw, `{"message":"unexpected request %s"}`, r.URL.String())
			return
		}
		switch query.Get("page") {
		case "1":
			rw.Header().Set("X-Next-Page", "2")
			fmt.Fprint(rw, mergeRequestPage(1, pageSize))
		case "2":
			fmt.Fprint(rw, `[{"iid":101,"created_at":"2024-01-05T09:00:00.000+02:00"}]`)
		default:
			rw.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)

	got, err := newTestSource(t, server, nil).ListRequests(context.Background(), w)
	if err != nil {
		t.Fatalf("ListRequests() unexpected error: %v", err)
	}
	if len(got) != pageSize+1 {
		t.Fatalf("len(ListRequests()) = %d, want %d", len(got), pageSize+1)
	}
	last := got[len(got)-1]
	wantCreated := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
	if last.ID != 101 || !last.CreatedAt.Equal(wantCreated) {
		t.Fatalf("last request = %+v, want !101 created at %s", last, wantCreated)
	}
}

func TestSourceListRequestsUnauthorized(t *testing.T) {
	t.Parallel()

	w, err := window.Parse("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("window.Parse() unexpected error: %v", err)
	}
	server := newProjectServer(t, map[string]route{"": {status: http.StatusUnauthorized}})

	_, err = newTestSource(t, server, nil).ListRequests(context.Background(), w)
	var statusErr *restclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != restclient.EndpointStatusUnauthorized {
		t.Fatalf("ListRequests() error = %v, want unauthorized StatusError", err)
	}
}

func TestSourceCommentCount(t *testing.T) {
	t.Parallel()

	server := newProjectServer(t, map[string]route{
		"/5/notes": {pages: []string{
			mixedNotes,
			`[{"id":5,"body":"LGTM","system":false,"created_at":"2024-01-03T09:00:00.000Z"}]`,
		}},
		"/6/notes": {status: http.StatusInternalServerError},
	})
	source := newTestSource(t, server, nil)

	got, err := source.CommentCount(context.Background(), review.Request{ID: 5})
	if err != nil {
		t.Fatalf("CommentCount() unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("CommentCount() = %d, want 2", got)
	}

	_, err = source.CommentCount(context.Background(), review.Request{ID: 6})
	var statusErr *restclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != restclient.EndpointStatusUnavailable {
		t.Fatalf("CommentCount() error = %v, want unavailable StatusError", err)
	}
}

func TestSourceReviewCandidates(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		routes        map[string]route
		failApprovals bool
		wantKinds     []review.Kind
		wantHours     *float64
		wantErr       bool
	}{
		{
			name: "not_mergeable_skips_approvals",
			routes: map[string]route{
				"/9/notes":     {pages: []string{mixedNotes}},
				"/9":           {pages: []string{`{"iid":9,"merge_status":"cannot_be_merged"}`}},
				"/9/approvals": {status: http.StatusInternalServerError},
			},
			wantKinds: []review.Kind{review.KindComment, review.KindSystemNote},
			wantHours: floatPtr(24),
		},
		{
			name: "mergeable_adds_approvals",
			routes: map[string]route{
				"/9/notes":     {pages: []string{`[]`}},
				"/9":           {pages: []string{`{"iid":9,"merge_status":"can_be_merged"}`}},
				"/9/approvals": {pages: []string{`{"approved_by":[{"user":{"name":"Alice"},"created_at":"2024-01-01T15:00:00.000Z"}]}`}},
			},
			wantKinds: []review.Kind{review.KindApproval},
			wantHours: floatPtr(6),
		},
		{
			name: "note_offset_is_discarded",
			routes: map[string]route{
				"/9/notes": {pages: []string{`[{"id":7,"body":"looks off","system":false,"created_at":"2024-01-01T11:00:00.000+02:00"}]`}},
				"/9":       {pages: []string{`{"iid":9,"merge_status":"cannot_be_merged"}`}},
			},
			wantKinds: []review.Kind{review.KindComment},
			wantHours: floatPtr(2),
		},
		{
			name: "approvals_endpoint_missing_is_absorbed",
			routes: map[string]route{
				"/9/notes": {pages: []string{mixedNotes}},
				"/9":       {pages: []string{`{"iid":9,"detailed_merge_status":"mergeable"}`}},
			},
			wantKinds: []review.Kind{review.KindComment, review.KindSystemNote},
			wantHours: floatPtr(24),
		},
		{
			name: "approvals_transport_error_is_absorbed",
			routes: map[string]route{
				"/9/notes": {pages: []string{`[]`}},
				"/9":       {pages: []string{`{"iid":9,"merge_status":"can_be_merged"}`}},
			},
			failApprovals: true,
			wantKinds:     []review.Kind{},
		},
		{
			name:    "notes_failure_is_an_error",
			routes:  map[string]route{"/9/notes": {status: http.StatusForbidden}},
			wantErr: true,
		},
		{
			name: "detail_failure_is_an_error",
			routes: map[string]route{
				"/9/notes": {pages: []string{mixedNotes}},
				"/9":       {status: http.StatusBadGateway},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newProjectServer(t, tc.routes)
			var doer restclient.HTTPDoer
			if tc.failApprovals {
				doer = failingDoer{next: server.Client(), suffix: "/approvals"}
			}

			got, err := newTestSource(t, server, doer).ReviewCandidates(context.Background(), review.Request{ID: 9, CreatedAt: created})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ReviewCandidates() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReviewCandidates() unexpected error: %v", err)
			}
			if len(got) != len(tc.wantKinds) {
				t.Fatalf("len(ReviewCandidates()) = %d, want %d (%+v)", len(got), len(tc.wantKinds), got)
			}
			for i, kind := range tc.wantKinds {
				if got[i].Kind != kind {
					t.Fatalf("got[%d].Kind = %q, want %q", i, got[i].Kind, kind)
				}
			}

			hours := review.FirstReviewHours(created, got)
			switch {
			case tc.wantHours == nil && hours != nil:
				t.Fatalf("FirstReviewHours() = %v, want nil", *hours)
			case tc.wantHours != nil && (hours == nil || *hours != *tc.wantHours):
				t.Fatalf("FirstReviewHours() = %v, want %v", hours, *tc.wantHours)
			}
		})
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
