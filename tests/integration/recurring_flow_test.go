package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestRecurringFlow_GenerationIsIdempotent(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "recur@test.com", "password123")
	entityID := app.createEntity(t, token, "Household")
	categoryID := app.createCategory(t, token, entityID, "Housing", "expense")

	// Monthly rent from January
	rec := app.request("POST", "/api/v1/entities/"+entityID+"/recurring",
		fmt.Sprintf(`{"category_id":%q,"name":"Rent","amount":150000,"type":"expense","frequency":"monthly","start_date":"2026-01-01T00:00:00Z"}`, categoryID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template failed: %d %s", rec.Code, rec.Body.String())
	}

	// First run over Q1 creates three transactions
	rec = app.request("POST", "/api/v1/entities/"+entityID+"/recurring/generate",
		`{"from_date":"2026-01-01T00:00:00Z","to_date":"2026-03-31T00:00:00Z"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["created"] != float64(3) {
		t.Fatalf("expected 3 created, got %v", result["created"])
	}

	// Second run over the same window creates nothing
	rec = app.request("POST", "/api/v1/entities/"+entityID+"/recurring/generate",
		`{"from_date":"2026-01-01T00:00:00Z","to_date":"2026-03-31T00:00:00Z"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("second generate failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)["result"].(map[string]interface{})
	if result["created"] != float64(0) {
		t.Errorf("expected 0 created on rerun, got %v", result["created"])
	}
	if result["skipped"] != float64(3) {
		t.Errorf("expected 3 skipped on rerun, got %v", result["skipped"])
	}

	// Ledger holds exactly three generated transactions
	rec = app.request("GET", "/api/v1/entities/"+entityID+"/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions failed: %d %s", rec.Code, rec.Body.String())
	}
	listing := parseJSON(t, rec)
	if listing["total_items"] != float64(3) {
		t.Fatalf("expected 3 transactions, got %v", listing["total_items"])
	}
	first := listing["data"].([]interface{})[0].(map[string]interface{})
	if first["amount"] != float64(150000) {
		t.Errorf("expected amount 150000, got %v", first["amount"])
	}
	if first["recurring_template_id"] == nil {
		t.Error("expected generated transaction to link back to its template")
	}

	// The monthly summary reflects the generated expenses
	rec = app.request("GET", "/api/v1/entities/"+entityID+"/reports/summary?year=2026&month=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary failed: %d %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)["summary"].(map[string]interface{})
	if summary["total_expense"] != float64(150000) {
		t.Errorf("expected February expense 150000, got %v", summary["total_expense"])
	}
}

func TestRecurringFlow_DeactivationKeepsHistory(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "recur2@test.com", "password123")
	entityID := app.createEntity(t, token, "Household")
	categoryID := app.createCategory(t, token, entityID, "Subscriptions", "expense")

	rec := app.request("POST", "/api/v1/entities/"+entityID+"/recurring",
		fmt.Sprintf(`{"category_id":%q,"name":"Streaming","amount":1999,"type":"expense","frequency":"monthly","start_date":"2026-01-15T00:00:00Z"}`, categoryID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template failed: %d %s", rec.Code, rec.Body.String())
	}
	templateID := parseJSON(t, rec)["template"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/entities/"+entityID+"/recurring/generate",
		`{"from_date":"2026-01-01T00:00:00Z","to_date":"2026-01-31T00:00:00Z"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("DELETE", "/api/v1/entities/"+entityID+"/recurring/"+templateID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate failed: %d %s", rec.Code, rec.Body.String())
	}

	// No new transactions after deactivation
	rec = app.request("POST", "/api/v1/entities/"+entityID+"/recurring/generate",
		`{"from_date":"2026-02-01T00:00:00Z","to_date":"2026-02-28T00:00:00Z"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate after deactivation failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["created"] != float64(0) {
		t.Errorf("expected 0 created after deactivation, got %v", result["created"])
	}

	// History survives
	rec = app.request("GET", "/api/v1/entities/"+entityID+"/transactions", "", token)
	if listing := parseJSON(t, rec); listing["total_items"] != float64(1) {
		t.Errorf("expected generated transaction to survive deactivation, got %v", listing["total_items"])
	}
}
