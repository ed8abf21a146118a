// Package e2e drives a running conforma server over HTTP with godog.
//
// Point CONFORMA_E2E_URL at the server under test. The suite mints its own
// access tokens; CONFORMA_E2E_SIGNING_KEY must match the server's
// JWT_SIGNING_KEY. Every scenario runs as a freshly generated company so
// scenarios never see each other's data.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultBaseURL    = "http://localhost:8080"
	defaultSigningKey = "dev-secret-key-change-in-production"
)

// TestContext holds per-scenario state: the current actor token, the last
// HTTP response and the identifiers saved by earlier steps.
type TestContext struct {
	baseURL    string
	signingKey []byte
	client     *http.Client

	companyID string
	userID    string
	token     string

	lastStatus int
	lastBody   any

	saved map[string]string
}

// NewTestContext builds a context from the environment.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("CONFORMA_E2E_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	key := os.Getenv("CONFORMA_E2E_SIGNING_KEY")
	if key == "" {
		key = defaultSigningKey
	}
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(key),
		client:     &http.Client{Timeout: 10 * time.Second},
		saved:      map[string]string{},
	}
}

// Reset starts a scenario with a fresh company and no actor.
func (tc *TestContext) Reset() {
	tc.companyID = uuid.NewString()
	tc.userID = ""
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.saved = map[string]string{}
}

// SignInAs mints an access token for a new user in the scenario's company.
func (tc *TestContext) SignInAs(role string) error {
	tc.userID = uuid.NewString()
	claims := jwt.MapClaims{
		"user_id":    tc.userID,
		"company_id": tc.companyID,
		"role":       role,
		"iat":        jwt.NewNumericDate(time.Now()),
		"exp":        jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	tc.token = token
	tc.saved["user_id"] = tc.userID
	return nil
}

// GET performs an authenticated GET. Placeholders like ${audit_id} in the
// path expand to previously saved values.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

// POST performs an authenticated POST with a JSON body.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

// PUT performs an authenticated PUT with a JSON body.
func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader([]byte(tc.Expand(string(payload))))
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	_ = json.NewDecoder(resp.Body).Decode(&tc.lastBody)
	return nil
}

// Status is the status code of the last response.
func (tc *TestContext) Status() int {
	return tc.lastStatus
}

// Field resolves a dotted path into the last response body. Numeric path
// segments index into arrays, so "templates.0.id" works.
func (tc *TestContext) Field(path string) (any, error) {
	current := tc.lastBody
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("response has no field %q (looking up %q)", segment, path)
			}
			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, fmt.Errorf("bad array index %q in %q", segment, path)
			}
			current = node[index]
		default:
			return nil, fmt.Errorf("cannot descend into %q at %q", path, segment)
		}
	}
	return current, nil
}

// SaveField stores a response field under a name for later placeholder
// expansion.
func (tc *TestContext) SaveField(path, name string) error {
	value, err := tc.Field(path)
	if err != nil {
		return err
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q is not a string", path)
	}
	tc.saved[name] = s
	return nil
}

// Saved returns a previously saved value, or the empty string.
func (tc *TestContext) Saved(name string) string {
	return tc.saved[name]
}

// Expand replaces ${name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for name, value := range tc.saved {
		s = strings.ReplaceAll(s, "${"+name+"}", value)
	}
	return s
}
