package gitlab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// mockHTTPClient is a test double for HTTPClient.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(doFunc func(req *http.Request) (*http.Response, error)) *Client {
	retryInterval = time.Millisecond
	return NewClient(Config{BaseURL: "https://git.example.com", Token: "test-token"},
		&mockHTTPClient{doFunc: doFunc}, nil)
}

func TestClient_SetsAuthHeaderAndPath(t *testing.T) {
	var gotURL, gotToken string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		gotToken = req.Header.Get("PRIVATE-TOKEN")
		return jsonResponse(http.StatusOK, `{"id": 7, "name": "api", "path_with_namespace": "group/api", "web_url": "https://git.example.com/group/api"}`, nil), nil
	})

	project, err := client.GetProject(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if gotToken != "test-token" {
		t.Errorf("PRIVATE-TOKEN = %q, expected test-token", gotToken)
	}
	if gotURL != "https://git.example.com/api/v4/projects/7" {
		t.Errorf("URL = %q", gotURL)
	}
	if project.PathWithNamespace != "group/api" {
		t.Errorf("PathWithNamespace = %q", project.PathWithNamespace)
	}
}

func TestClient_ProjectPathIsEscaped(t *testing.T) {
	var gotPath string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.EscapedPath()
		return jsonResponse(http.StatusOK, `{"id": 1}`, nil), nil
	})

	if _, err := client.GetProjectByPath(context.Background(), "group/sub/api"); err != nil {
		t.Fatalf("GetProjectByPath() error = %v", err)
	}
	if gotPath != "/api/v4/projects/group%2Fsub%2Fapi" {
		t.Errorf("path = %q, expected encoded project path", gotPath)
	}
}

func TestClient_NotFoundSentinel(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message": "404 Tag Not Found"}`, nil), nil
	})

	_, err := client.GetTag(context.Background(), 1, "v9.9.9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTag() error = %v, expected ErrNotFound", err)
	}
}

func TestClient_UnauthorizedSentinel(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"message": "401 Unauthorized"}`, nil), nil
	})

	err := client.Ping(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Ping() error = %v, expected ErrUnauthorized", err)
	}
}

func TestClient_RetriesTransientFault(t *testing.T) {
	attempts := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return jsonResponse(http.StatusServiceUnavailable, `{"message": "down"}`, nil), nil
		}
		return jsonResponse(http.StatusOK, `{"id": "abc"}`, nil), nil
	})

	if _, err := client.GetCommit(context.Background(), 1, "abc"); err != nil {
		t.Fatalf("GetCommit() error = %v, expected retry to succeed", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, expected 2", attempts)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(http.StatusBadRequest, `{"message": "bad ref"}`, nil), nil
	})

	_, err := client.GetCommit(context.Background(), 1, "zzz")
	if err == nil {
		t.Fatal("GetCommit() expected error, got nil")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("error = %v, expected APIError with status 400", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, expected no retries on 4xx", attempts)
	}
}

func TestClient_ListCommitsPagePagination(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		page := req.URL.Query().Get("page")
		if req.URL.Query().Get("ref_name") != "main" {
			t.Errorf("ref_name = %q, expected main", req.URL.Query().Get("ref_name"))
		}
		header := http.Header{}
		if page == "1" {
			header.Set("X-Next-Page", "2")
			return jsonResponse(http.StatusOK, `[{"id": "c2"}, {"id": "c1"}]`, header), nil
		}
		return jsonResponse(http.StatusOK, `[{"id": "c0"}]`, header), nil
	})

	commits, next, err := client.ListCommitsPage(context.Background(), 1, "main", 1)
	if err != nil {
		t.Fatalf("ListCommitsPage() error = %v", err)
	}
	if len(commits) != 2 || next != 2 {
		t.Errorf("page 1: %d commits next=%d, expected 2 commits next=2", len(commits), next)
	}

	commits, next, err = client.ListCommitsPage(context.Background(), 1, "main", 2)
	if err != nil {
		t.Fatalf("ListCommitsPage() error = %v", err)
	}
	if len(commits) != 1 || next != 0 {
		t.Errorf("page 2: %d commits next=%d, expected 1 commit next=0", len(commits), next)
	}
}

func TestClient_ListGroupProjectsDrainsPages(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("archived") != "false" {
			t.Error("expected archived=false")
		}
		header := http.Header{}
		switch req.URL.Query().Get("page") {
		case "1":
			header.Set("X-Next-Page", "2")
			return jsonResponse(http.StatusOK, `[{"id": 1}, {"id": 2}]`, header), nil
		default:
			return jsonResponse(http.StatusOK, `[{"id": 3}]`, header), nil
		}
	})

	projects, err := client.ListGroupProjects(context.Background(), "group/sub", true)
	if err != nil {
		t.Fatalf("ListGroupProjects() error = %v", err)
	}
	if len(projects) != 3 {
		t.Errorf("got %d projects, expected 3 across pages", len(projects))
	}
}

func TestClient_ListMergeRequestsQuery(t *testing.T) {
	after := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var gotQuery map[string]string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotQuery = map[string]string{}
		for key := range req.URL.Query() {
			gotQuery[key] = req.URL.Query().Get(key)
		}
		return jsonResponse(http.StatusOK,
			`[{"id": 1001, "iid": 41, "title": "Tighten timeouts", "state": "merged", "author": {"name": "alice", "username": "alice"}}]`,
			nil), nil
	})

	mrs, err := client.ListMergeRequests(context.Background(), 7, MergeRequestQuery{
		State:        "merged",
		TargetBranch: "main",
		CreatedAfter: &after,
	})
	if err != nil {
		t.Fatalf("ListMergeRequests() error = %v", err)
	}
	if len(mrs) != 1 || mrs[0].IID != 41 || mrs[0].Author.Name != "alice" {
		t.Errorf("mrs = %+v", mrs)
	}

	if gotQuery["state"] != "merged" || gotQuery["target_branch"] != "main" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotQuery["created_after"] != after.Format(time.RFC3339) {
		t.Errorf("created_after = %q", gotQuery["created_after"])
	}
	if _, ok := gotQuery["source_branch"]; ok {
		t.Error("source_branch sent despite empty filter")
	}
}

func TestClient_ListMergeRequestsAllStateOmitted(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if _, ok := req.URL.Query()["state"]; ok {
			t.Error("state sent for the all filter")
		}
		return jsonResponse(http.StatusOK, `[]`, nil), nil
	})

	if _, err := client.ListMergeRequests(context.Background(), 7, MergeRequestQuery{State: "all"}); err != nil {
		t.Fatalf("ListMergeRequests() error = %v", err)
	}
}

func TestNextPage(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{value: "2", expected: 2},
		{value: "", expected: 0},
		{value: " ", expected: 0},
		{value: "0", expected: 0},
		{value: "x", expected: 0},
	}

	for _, tt := range tests {
		header := http.Header{}
		if tt.value != "" {
			header.Set("X-Next-Page", tt.value)
		}
		if got := nextPage(header); got != tt.expected {
			t.Errorf("nextPage(%q) = %d, expected %d", tt.value, got, tt.expected)
		}
	}
}

func TestClient_TransportErrorAfterRetries(t *testing.T) {
	attempts := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		attempts++
		return nil, fmt.Errorf("dial tcp: connection refused")
	})

	err := client.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() expected error, got nil")
	}
	if attempts != maxRetries+1 {
		t.Errorf("attempts = %d, expected %d", attempts, maxRetries+1)
	}
}
