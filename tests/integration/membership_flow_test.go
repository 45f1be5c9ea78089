package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMembershipFlow_IsolationAndSharing(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "owner@test.com", "password123")
	outsiderToken, outsiderID := app.registerUser(t, "outsider@test.com", "password123")

	entityID := app.createEntity(t, ownerToken, "Shared Books")
	app.createCategory(t, ownerToken, entityID, "Revenue", "income")

	// A non-member sees the entity as not found, never as forbidden
	rec := app.request("GET", "/api/v1/entities/"+entityID, "", outsiderToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-member, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/entities/"+entityID+"/categories", "", outsiderToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 listing categories as non-member, got %d", rec.Code)
	}

	// Once added, the member can read everything
	rec = app.request("POST", "/api/v1/entities/"+entityID+"/members",
		`{"email":"outsider@test.com","role":"member"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/entities/"+entityID+"/categories", "", outsiderToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for member, got %d: %s", rec.Code, rec.Body.String())
	}
	if items := parseJSON(t, rec)["data"].([]interface{}); len(items) != 1 {
		t.Errorf("expected member to see 1 category, got %d", len(items))
	}

	// Only an owner may delete the entity
	rec = app.request("DELETE", "/api/v1/entities/"+entityID, "", outsiderToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member delete, got %d: %s", rec.Code, rec.Body.String())
	}

	// Removing the member revokes access
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/entities/%s/members/%s", entityID, outsiderID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove member failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/entities/"+entityID, "", outsiderToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", rec.Code)
	}

	// The last owner cannot be removed
	rec = app.request("GET", "/api/v1/entities/"+entityID+"/members", "", ownerToken)
	members := parseJSON(t, rec)["members"].([]interface{})
	ownerUserID := members[0].(map[string]interface{})["user_id"].(string)
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/entities/%s/members/%s", entityID, ownerUserID), "", ownerToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 removing last owner, got %d: %s", rec.Code, rec.Body.String())
	}
}
