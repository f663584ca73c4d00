package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contractmind/backend/config"
	"github.com/contractmind/backend/model"
)

func TestNewSupabaseClient(t *testing.T) {
	if _, err := NewSupabaseClient(&config.SupabaseConfig{}); err == nil {
		t.Error("Expected error for missing URL")
	}
	if _, err := NewSupabaseClient(&config.SupabaseConfig{URL: "https://x.test"}); err == nil {
		t.Error("Expected error for missing service key")
	}

	client, err := NewSupabaseClient(&config.SupabaseConfig{URL: "https://x.test/", ServiceKey: "key"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.baseURL != "https://x.test/rest/v1" {
		t.Errorf("Unexpected base URL: %s", client.baseURL)
	}
}

func TestSupabaseClientSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/contracts" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" {
			t.Error("Expected apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Error("Expected Authorization header")
		}

		q := r.URL.Query()
		if q.Get("user_id") != "eq.user-1" {
			t.Errorf("Expected user_id=eq.user-1, got %s", q.Get("user_id"))
		}
		if q.Get("order") != "created_at.desc" {
			t.Errorf("Expected order=created_at.desc, got %s", q.Get("order"))
		}
		if q.Get("limit") != "5" {
			t.Errorf("Expected limit=5, got %s", q.Get("limit"))
		}

		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c-1", "user_id": "user-1", "filename": "a.pdf", "status": "uploaded"},
		})
	}))
	defer server.Close()

	client, _ := NewSupabaseClient(&config.SupabaseConfig{URL: server.URL, ServiceKey: "service-key"})

	var rows []model.Contract
	opts := &QueryOptions{Limit: 5, OrderBy: "created_at", Descending: true}
	err := client.Select(context.Background(), "contracts", Filter{"user_id": "user-1"}, opts, &rows)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "c-1" {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}

func TestSupabaseClientInsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Unexpected Prefer header: %s", r.Header.Get("Prefer"))
		}

		var record map[string]any
		json.NewDecoder(r.Body).Decode(&record)
		record["id"] = "generated-id"

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{record})
	}))
	defer server.Close()

	client, _ := NewSupabaseClient(&config.SupabaseConfig{URL: server.URL, ServiceKey: "k"})

	var saved model.Contract
	err := client.Insert(context.Background(), "contracts", &model.Contract{UserID: "u", Filename: "a.pdf"}, &saved)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if saved.ID != "generated-id" {
		t.Errorf("Expected generated-id, got %s", saved.ID)
	}
}

func TestSupabaseClientUpdateNoRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		if r.URL.Query().Get("id") != "eq.missing" {
			t.Errorf("Unexpected id filter: %s", r.URL.Query().Get("id"))
		}
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client, _ := NewSupabaseClient(&config.SupabaseConfig{URL: server.URL, ServiceKey: "k"})

	err := client.Update(context.Background(), "contracts", "missing", map[string]any{"status": "analyzed"}, nil)
	if err != ErrNoRows {
		t.Errorf("Expected ErrNoRows, got %v", err)
	}
}

func TestSupabaseClientUpsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("on_conflict") != "contract_id" {
			t.Errorf("Expected on_conflict=contract_id, got %s", r.URL.Query().Get("on_conflict"))
		}
		if r.Header.Get("Prefer") != "return=representation,resolution=merge-duplicates" {
			t.Errorf("Unexpected Prefer header: %s", r.Header.Get("Prefer"))
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": "e-1", "contract_id": "c-1"}})
	}))
	defer server.Close()

	client, _ := NewSupabaseClient(&config.SupabaseConfig{URL: server.URL, ServiceKey: "k"})

	var entry model.TextCacheEntry
	err := client.Upsert(context.Background(), "extracted_texts", "contract_id", &model.TextCacheEntry{ContractID: "c-1"}, &entry)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if entry.ID != "e-1" {
		t.Errorf("Expected e-1, got %s", entry.ID)
	}
}

func TestSupabaseClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "JWT expired"})
	}))
	defer server.Close()

	client, _ := NewSupabaseClient(&config.SupabaseConfig{URL: server.URL, ServiceKey: "k"})

	var rows []model.Contract
	err := client.Select(context.Background(), "contracts", nil, nil, &rows)
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
}
