package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/internal/testutil"
	"go.uber.org/zap"
)

const testPassword = "Password123"

type testEnv struct {
	server   *httptest.Server
	svc      Services
	notifier *testutil.Notifier
}

func newTestEnv(t *testing.T, authCfg config.AuthConfig) *testEnv {
	t.Helper()

	log := zap.NewNop()
	db := testutil.NewDB()
	notifier := testutil.NewNotifier()

	svc := Services{
		Auth:      services.NewAuthService(db.Users(), db.Resets(), notifier, log),
		Listings:  services.NewListingService(db.Listings(), testutil.NewImages(), true, log),
		Leads:     services.NewLeadService(db.Leads(), db.Listings(), notifier, log),
		Messages:  services.NewMessageService(db.Messages(), db.Listings(), log),
		Dashboard: services.NewDashboardService(db.Stats(), db.Users(), db.Listings(), log),
	}
	if authCfg.JWTSecret == "" {
		authCfg.JWTSecret = "test-secret"
	}
	if authCfg.TokenTTL == 0 {
		authCfg.TokenTTL = time.Hour
	}

	srv := httptest.NewServer(NewRouter(authCfg, svc, log))
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, svc: svc, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// doJSON sends payload as JSON and decodes the response into out when out is set.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload, out any) int {
	t.Helper()

	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp := e.do(t, method, path, token, body, contentType)
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) register(t *testing.T, name, email, role string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"name": name, "email": email, "password": testPassword, "role": role}
	if status := e.doJSON(t, http.MethodPost, "/auth/register", "", payload, &resp); status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
	return resp.Token
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": testPassword}
	if status := e.doJSON(t, http.MethodPost, "/auth/login", "", payload, &resp); status != http.StatusOK {
		t.Fatalf("login %s: status %d", email, status)
	}
	return resp.Token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	_, err := e.svc.Auth.CreateAdmin(context.Background(), services.SignupInput{
		Name:     "Site Admin",
		Email:    "admin@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return e.login(t, "admin@example.com")
}

type listingJSON struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Approved     bool    `json:"approved"`
	OwnerContact *string `json:"owner_contact"`
}

func (e *testEnv) createListing(t *testing.T, token string, fields map[string]string, image []byte) (int, listingJSON) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(image)
	}
	_ = writer.Close()

	resp := e.do(t, http.MethodPost, "/listings", token, &body, writer.FormDataContentType())
	defer resp.Body.Close()

	var listing listingJSON
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
			t.Fatalf("decode listing: %v", err)
		}
	}
	return resp.StatusCode, listing
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})

	var health struct {
		Status string `json:"status"`
	}
	if status := env.doJSON(t, http.MethodGet, "/healthz", "", nil, &health); status != http.StatusOK || health.Status != "ok" {
		t.Fatalf("healthz status %d body %+v", status, health)
	}

	resp := env.do(t, http.MethodGet, "/metrics", "", nil, "")
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "rems_http_requests_total") {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})

	token := env.register(t, "Alice", "alice@example.com", "agent")

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
		Hash  string `json:"password_hash"`
	}
	if status := env.doJSON(t, http.MethodGet, "/auth/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("me status %d", status)
	}
	if me.Email != "alice@example.com" || me.Role != "agent" || me.Hash != "" {
		t.Fatalf("unexpected me payload: %+v", me)
	}

	dup := map[string]string{"name": "A2", "email": "alice@example.com", "password": "x"}
	if status := env.doJSON(t, http.MethodPost, "/auth/register", "", dup, nil); status != http.StatusConflict {
		t.Fatalf("duplicate register status %d", status)
	}
	admin := map[string]string{"name": "Eve", "email": "eve@example.com", "password": "x", "role": "admin"}
	if status := env.doJSON(t, http.MethodPost, "/auth/register", "", admin, nil); status != http.StatusBadRequest {
		t.Fatalf("admin self-registration status %d", status)
	}

	wrong := map[string]string{"email": "alice@example.com", "password": "nope"}
	if status := env.doJSON(t, http.MethodPost, "/auth/login", "", wrong, nil); status != http.StatusUnauthorized {
		t.Fatalf("wrong password status %d", status)
	}

	if status := env.doJSON(t, http.MethodGet, "/auth/me", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous me status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/auth/me", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("bad token me status %d", status)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	env.register(t, "Dan", "dan@example.com", "buyer")

	resp := env.do(t, http.MethodPost, "/auth/password/forgot", "", strings.NewReader(`{"email":"dan@example.com"}`), "application/json")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("forgot status %d", resp.StatusCode)
	}
	token := env.notifier.ResetToken("dan@example.com")
	if token == "" || strings.Contains(string(body), token) {
		t.Fatalf("token must be delivered out of band, body %s", body)
	}

	if status := env.doJSON(t, http.MethodPost, "/auth/password/forgot", "", map[string]string{"email": "nobody@example.com"}, nil); status != http.StatusAccepted {
		t.Fatalf("unknown email status %d", status)
	}

	reset := map[string]string{"token": token, "password": "brand-new"}
	if status := env.doJSON(t, http.MethodPost, "/auth/password/reset", "", reset, nil); status != http.StatusOK {
		t.Fatalf("reset status %d", status)
	}
	if status := env.doJSON(t, http.MethodPost, "/auth/password/reset", "", reset, nil); status != http.StatusBadRequest {
		t.Fatalf("second reset status %d", status)
	}

	login := map[string]string{"email": "dan@example.com", "password": "brand-new"}
	if status := env.doJSON(t, http.MethodPost, "/auth/login", "", login, nil); status != http.StatusOK {
		t.Fatalf("login with new password status %d", status)
	}
}

func TestListingEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	agent := env.register(t, "Alan", "alan@example.com", "agent")
	buyer := env.register(t, "Bea", "bea@example.com", "buyer")

	fields := map[string]string{
		"title":          "Garden House",
		"price":          "420000",
		"location":       "Bengaluru",
		"bedrooms":       "3",
		"contact_number": "555-0142",
	}

	if status, _ := env.createListing(t, "", fields, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous create status %d", status)
	}
	if status, _ := env.createListing(t, buyer, fields, nil); status != http.StatusForbidden {
		t.Fatalf("buyer create status %d", status)
	}
	if status, _ := env.createListing(t, agent, map[string]string{"title": "x", "price": "abc", "location": "y"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad price status %d", status)
	}
	if status, _ := env.createListing(t, agent, fields, []byte("plain text, not an image")); status != http.StatusBadRequest {
		t.Fatalf("non-image upload status %d", status)
	}

	status, listing := env.createListing(t, agent, fields, pngHeader)
	if status != http.StatusCreated {
		t.Fatalf("create status %d", status)
	}
	if !listing.Approved || listing.OwnerContact == nil || *listing.OwnerContact != "555-0142" {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	var got listingJSON
	if status := env.doJSON(t, http.MethodGet, fmt.Sprintf("/listings/%d", listing.ID), "", nil, &got); status != http.StatusOK || got.Title != "Garden House" {
		t.Fatalf("get status %d listing %+v", status, got)
	}

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/listings/%d/image", listing.ID), "", nil, "")
	image, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" || !bytes.Equal(image, pngHeader) {
		t.Fatalf("image status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	var all, found struct {
		Items []listingJSON `json:"items"`
	}
	env.doJSON(t, http.MethodGet, "/listings", "", nil, &all)
	env.doJSON(t, http.MethodGet, "/listings/search", "", nil, &found)
	if len(all.Items) != 1 || len(found.Items) != 1 {
		t.Fatalf("list %d, wildcard search %d", len(all.Items), len(found.Items))
	}

	found.Items = nil
	env.doJSON(t, http.MethodGet, "/listings/search?q=garden&location=BENGAL&min_price=400000&max_price=500000", "", nil, &found)
	if len(found.Items) != 1 {
		t.Fatalf("filtered search returned %d", len(found.Items))
	}
	found.Items = nil
	env.doJSON(t, http.MethodGet, "/listings/search?max_price=1000", "", nil, &found)
	if len(found.Items) != 0 {
		t.Fatalf("price filter returned %d", len(found.Items))
	}

	if status := env.doJSON(t, http.MethodGet, "/listings/search?min_price=cheap", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("malformed min_price status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/listings/search?min_price=10&max_price=5", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("inverted range status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/listings/abc", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("bad id status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/listings/999", "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("missing listing status %d", status)
	}

	if status := env.doJSON(t, http.MethodPost, fmt.Sprintf("/listings/%d/approve", listing.ID), agent, nil, nil); status != http.StatusForbidden {
		t.Fatalf("agent approve status %d", status)
	}
	if status := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/listings/%d", listing.ID), buyer, nil, nil); status != http.StatusForbidden {
		t.Fatalf("buyer delete status %d", status)
	}
	if status := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/listings/%d", listing.ID), "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous delete status %d", status)
	}

	admin := env.adminToken(t)
	if status := env.doJSON(t, http.MethodPost, fmt.Sprintf("/listings/%d/approve", listing.ID), admin, nil, nil); status != http.StatusOK {
		t.Fatalf("admin approve status %d", status)
	}
	if status := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/listings/%d", listing.ID), admin, nil, nil); status != http.StatusNoContent {
		t.Fatalf("admin delete status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, fmt.Sprintf("/listings/%d", listing.ID), "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("deleted listing status %d", status)
	}
}

func TestMessagingEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	agent := env.register(t, "Alan", "alan@example.com", "agent")
	buyer := env.register(t, "Bea", "bea@example.com", "buyer")
	_, listing := env.createListing(t, agent, map[string]string{"title": "Flat", "price": "10", "location": "Kochi"}, nil)

	path := fmt.Sprintf("/listings/%d/messages", listing.ID)
	if status := env.doJSON(t, http.MethodPost, path, "", map[string]string{"body": "hi"}, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous send status %d", status)
	}
	if status := env.doJSON(t, http.MethodPost, path, buyer, map[string]string{"body": "  "}, nil); status != http.StatusBadRequest {
		t.Fatalf("empty body status %d", status)
	}
	if status := env.doJSON(t, http.MethodPost, "/listings/999/messages", buyer, map[string]string{"body": "hi"}, nil); status != http.StatusNotFound {
		t.Fatalf("unknown listing status %d", status)
	}
	if status := env.doJSON(t, http.MethodPost, path, buyer, map[string]string{"body": "Is parking included?"}, nil); status != http.StatusCreated {
		t.Fatalf("send status %d", status)
	}

	var thread struct {
		Items []struct {
			Body       string `json:"body"`
			SenderName string `json:"sender_name"`
		} `json:"items"`
	}
	if status := env.doJSON(t, http.MethodGet, path, agent, nil, &thread); status != http.StatusOK {
		t.Fatalf("thread status %d", status)
	}
	if len(thread.Items) != 1 || thread.Items[0].SenderName != "Bea" {
		t.Fatalf("thread = %+v", thread.Items)
	}

	thread.Items = nil
	if status := env.doJSON(t, http.MethodGet, path, "", nil, &thread); status != http.StatusOK || len(thread.Items) != 0 {
		t.Fatalf("anonymous thread status %d items %d", status, len(thread.Items))
	}

	var unread struct {
		Count int `json:"count"`
	}
	env.doJSON(t, http.MethodGet, "/messages/unread-count", agent, nil, &unread)
	if unread.Count != 1 {
		t.Fatalf("agent unread = %d", unread.Count)
	}
	unread.Count = -1
	env.doJSON(t, http.MethodGet, "/messages/unread-count", "", nil, &unread)
	if unread.Count != 0 {
		t.Fatalf("anonymous unread = %d", unread.Count)
	}
}

func TestLeadAndDashboardEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{})
	agent := env.register(t, "Alan", "alan@example.com", "agent")
	_, listing := env.createListing(t, agent, map[string]string{"title": "Flat", "price": "10", "location": "Kochi"}, nil)

	lead := map[string]any{"name": "Walk In", "email": "walkin@example.com", "message": "Interested", "listing_id": listing.ID}
	if status := env.doJSON(t, http.MethodPost, "/leads", "", lead, nil); status != http.StatusCreated {
		t.Fatalf("lead status %d", status)
	}
	if len(env.notifier.Leads) != 1 {
		t.Fatalf("expected lead notification")
	}
	if status := env.doJSON(t, http.MethodPost, "/leads", "", map[string]any{"name": "x"}, nil); status != http.StatusBadRequest {
		t.Fatalf("invalid lead status %d", status)
	}

	if status := env.doJSON(t, http.MethodGet, "/leads", agent, nil, nil); status != http.StatusForbidden {
		t.Fatalf("agent leads status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/admin/dashboard", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous dashboard status %d", status)
	}

	admin := env.adminToken(t)
	var leads struct {
		Items []struct {
			ID int `json:"id"`
		} `json:"items"`
	}
	if status := env.doJSON(t, http.MethodGet, "/leads", admin, nil, &leads); status != http.StatusOK || len(leads.Items) != 1 {
		t.Fatalf("admin leads status %d items %d", status, len(leads.Items))
	}

	var dashboard struct {
		UsersCount    int `json:"users_count"`
		ListingsCount int `json:"listings_count"`
		LeadsCount    int `json:"leads_count"`
	}
	if status := env.doJSON(t, http.MethodGet, "/admin/dashboard", admin, nil, &dashboard); status != http.StatusOK {
		t.Fatalf("dashboard status %d", status)
	}
	if dashboard.UsersCount != 2 || dashboard.ListingsCount != 1 || dashboard.LeadsCount != 1 {
		t.Fatalf("dashboard = %+v", dashboard)
	}
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{RateLimitRPS: 0.001, RateLimitBurst: 2})

	login := map[string]string{"email": "nobody@example.com", "password": "x"}
	for i := 0; i < 2; i++ {
		if status := env.doJSON(t, http.MethodPost, "/auth/login", "", login, nil); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d status %d", i+1, status)
		}
	}
	if status := env.doJSON(t, http.MethodPost, "/auth/login", "", login, nil); status != http.StatusTooManyRequests {
		t.Fatalf("throttled attempt status %d", status)
	}
	if status := env.doJSON(t, http.MethodGet, "/listings", "", nil, nil); status != http.StatusOK {
		t.Fatalf("listings should not be throttled, status %d", status)
	}
}
