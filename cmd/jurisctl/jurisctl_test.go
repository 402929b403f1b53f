package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string unchanged", "abc", 10, "abc"},
		{"exact length unchanged", "abcde", 5, "abcde"},
		{"long string truncated", "abcdefghij", 8, "abcde..."},
		{"tiny max hard cut", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash(""); got != "-" {
		t.Errorf("orDash(\"\") = %q, want \"-\"", got)
	}
	if got := orDash("x"); got != "x" {
		t.Errorf("orDash(\"x\") = %q, want \"x\"", got)
	}
}

func TestResolvedRoleDefault(t *testing.T) {
	companyRole = ""
	t.Setenv("JURIS_ROLE", "")
	if got := resolvedRole(); got != "member" {
		t.Errorf("resolvedRole() = %q, want \"member\"", got)
	}

	t.Setenv("JURIS_ROLE", "owner")
	if got := resolvedRole(); got != "owner" {
		t.Errorf("resolvedRole() = %q, want \"owner\"", got)
	}

	companyRole = "org_admin"
	defer func() { companyRole = "" }()
	if got := resolvedRole(); got != "org_admin" {
		t.Errorf("flag should win over env, got %q", got)
	}
}

// --- HTTP integration tests with httptest ---

func newTestClient(srv *httptest.Server) *baselineClient {
	return &baselineClient{
		baseURL: srv.URL,
		http:    srv.Client(),
		user:    "olivia",
		company: "acme",
		role:    "owner",
	}
}

func TestClientSendsIdentityHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-User-Id"); got != "olivia" {
			t.Errorf("X-User-Id = %q, want %q", got, "olivia")
		}
		if got := r.Header.Get("X-Company-Id"); got != "acme" {
			t.Errorf("X-Company-Id = %q, want %q", got, "acme")
		}
		if got := r.Header.Get("X-Company-Role"); got != "owner" {
			t.Errorf("X-Company-Role = %q, want %q", got, "owner")
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	var resp map[string]any
	if err := client.getJSON("/healthz", &resp); err != nil {
		t.Fatalf("getJSON failed: %v", err)
	}
}

func TestPortfoliosListHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/portfolios" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := map[string]any{
			"portfolios": []any{
				map[string]any{"id": "p-1", "name": "Growth", "status": "active"},
			},
			"totalSize": 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	var result struct {
		Portfolios []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"portfolios"`
		TotalSize int `json:"totalSize"`
	}
	if err := client.getJSON("/api/v1/portfolios", &result); err != nil {
		t.Fatalf("getJSON failed: %v", err)
	}

	if result.TotalSize != 1 {
		t.Errorf("TotalSize = %d, want 1", result.TotalSize)
	}
	if result.Portfolios[0].Name != "Growth" {
		t.Errorf("portfolio name = %q, want %q", result.Portfolios[0].Name, "Growth")
	}
}

func TestDeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	if err := client.delete("/api/v1/versions/v-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "approver access required"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	err := client.postJSON("/api/v1/versions/v-1/approve", map[string]string{}, nil)
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if want := "approver access required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should contain %q", err.Error(), want)
	}
}

func TestPublishConfirmationConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ConfirmArchivePrevious bool `json:"confirmArchivePrevious"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if !req.ConfirmArchivePrevious {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{
				"confirmationRequired": true,
				"currentActiveVersion": map[string]any{"id": "v-1", "versionNumber": 1},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"archivedVersionId": "v-1",
			"version":           map[string]any{"id": "v-2", "status": "published"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)

	resp, err := client.do(http.MethodPost, "/api/v1/versions/v-2/publish", map[string]bool{"confirmArchivePrevious": false})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var conflict struct {
		ConfirmationRequired bool `json:"confirmationRequired"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !conflict.ConfirmationRequired {
		t.Error("expected confirmationRequired in conflict body")
	}

	var result map[string]any
	if err := client.postJSON("/api/v1/versions/v-2/publish", map[string]bool{"confirmArchivePrevious": true}, &result); err != nil {
		t.Fatalf("confirmed publish failed: %v", err)
	}
	if result["archivedVersionId"] != "v-1" {
		t.Errorf("archivedVersionId = %v, want v-1", result["archivedVersionId"])
	}
}
