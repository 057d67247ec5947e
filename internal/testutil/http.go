package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/campstaff/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID      string
	Name    string
	LoginID string
	Role    string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:      primitive.NewObjectID().Hex(),
		Name:    "Test Admin",
		LoginID: "admin",
		Role:    "admin",
	}
}

// CoordinatorUser returns a TestUser with coordinator role.
func CoordinatorUser() TestUser {
	return TestUser{
		ID:      primitive.NewObjectID().Hex(),
		Name:    "Test Coordinator",
		LoginID: "coordinator",
		Role:    "coordinator",
	}
}

// OperatorUser returns a TestUser with the operator role, which has no
// access to assignment routes.
func OperatorUser() TestUser {
	return TestUser{
		ID:      primitive.NewObjectID().Hex(),
		Name:    "Test Operator",
		LoginID: "operator",
		Role:    "operator",
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      user.ID,
		Name:    user.Name,
		LoginID: user.LoginID,
		Role:    user.Role,
	})
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// NewJSONRequest creates an authenticated request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any, user TestUser) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(v)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, r.Body.String())
	}
}
