package route

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"jojarts/controller"
	mw "jojarts/middlewares"
	"jojarts/models"
	"jojarts/store"
	"jojarts/utils"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memAdmins struct {
	admins map[string]*models.Admin
}

func (m *memAdmins) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if a, ok := m.admins[username]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

// memCatalog mirrors ImageStore semantics in memory.
type memCatalog struct {
	mu     sync.Mutex
	images map[bson.ObjectID]models.Image
	seq    int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{images: make(map[bson.ObjectID]models.Image)}
}

func (m *memCatalog) List(ctx context.Context) ([]models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Image, 0, len(m.images))
	for _, img := range m.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memCatalog) Create(ctx context.Context, url, label string) (*models.Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, store.ErrValidation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
	img := models.Image{ID: bson.NewObjectID(), URL: url, Label: label, CreatedAt: now, UpdatedAt: now}
	m.images[img.ID] = img
	return &img, nil
}

func (m *memCatalog) Update(ctx context.Context, id string, patch models.ImagePatch) (*models.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return nil, store.ErrValidation
	}
	if patch.URL != nil {
		img.URL = *patch.URL
	}
	if patch.Label != nil {
		img.Label = *patch.Label
	}
	m.images[oid] = img
	return &img, nil
}

func (m *memCatalog) Remove(ctx context.Context, id string) (string, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", store.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[oid]; !ok {
		return "", store.ErrNotFound
	}
	delete(m.images, oid)
	return id, nil
}

type testAPI struct {
	router  *gin.Engine
	tokens  *utils.TokenService
	catalog *memCatalog
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	hash, err := utils.HashPass("123")
	if err != nil {
		t.Fatalf("HashPass failed: %v", err)
	}
	admins := &memAdmins{admins: map[string]*models.Admin{
		"admin": {ID: bson.NewObjectID(), Username: "admin", PasswordHash: hash, Role: models.RoleAdmin},
	}}
	tokens := utils.NewTokenService("test-secret", 0)
	catalog := newMemCatalog()

	router := gin.New()
	router.Use(mw.RequestLogger(zap.NewNop()))
	limiter := mw.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	Register(router, controller.NewHandler(admins, tokens, catalog), tokens, limiter)

	return &testAPI{router: router, tokens: tokens, catalog: catalog}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Login failed: %d %s", rr.Code, rr.Body.String())
	}
	var resp models.LoginResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	return resp.Token
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not JSON: %q", rr.Body.String())
	}
	msg, _ := body["message"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
		t.Errorf("Unexpected health response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"valid", map[string]string{"username": "admin", "password": "123"}, http.StatusOK, ""},
		{"wrong password", map[string]string{"username": "admin", "password": "1234"}, http.StatusUnauthorized, controller.MsgBadCredentials},
		{"unknown user", map[string]string{"username": "root", "password": "123"}, http.StatusUnauthorized, controller.MsgBadCredentials},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest, controller.MsgMissingCredentials},
		{"empty body", nil, http.StatusBadRequest, controller.MsgMissingCredentials},
		{"malformed json", "{", http.StatusBadRequest, controller.MsgMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantMsg != "" {
				if msg := message(t, rr); msg != tt.wantMsg {
					t.Errorf("Expected message %q, got %q", tt.wantMsg, msg)
				}
				return
			}
			var resp models.LoginResponse
			json.Unmarshal(rr.Body.Bytes(), &resp)
			if resp.Token == "" || resp.Username != "admin" {
				t.Errorf("Unexpected login response: %+v", resp)
			}
			if _, err := api.tokens.Verify(resp.Token); err != nil {
				t.Errorf("Issued token does not verify: %v", err)
			}
		})
	}
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	rr := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var me models.MeResponse
	json.Unmarshal(rr.Body.Bytes(), &me)
	if me.Username != "admin" || me.Role != "admin" {
		t.Errorf("Unexpected identity: %+v", me)
	}

	rr = api.do(t, http.MethodGet, "/api/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized || message(t, rr) != mw.MsgMissingToken {
		t.Errorf("Expected 401 missing token, got %d %s", rr.Code, rr.Body.String())
	}
	rr = api.do(t, http.MethodGet, "/api/auth/me", "junk", nil)
	if rr.Code != http.StatusUnauthorized || message(t, rr) != mw.MsgInvalidToken {
		t.Errorf("Expected 401 invalid token, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreateImageRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/api/images", "", map[string]string{"url": "https://x/y.jpg"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
	if msg := message(t, rr); msg != "Hiányzó token." {
		t.Errorf("Expected missing token message, got %q", msg)
	}
	if images, _ := api.catalog.List(context.Background()); len(images) != 0 {
		t.Errorf("Unauthorized request created %d images", len(images))
	}
}

func TestCreateImage(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	rr := api.do(t, http.MethodPost, "/api/images", token, map[string]string{"url": "https://x/y.jpg"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d %s", rr.Code, rr.Body.String())
	}
	var created models.ImageResponse
	json.Unmarshal(rr.Body.Bytes(), &created)
	if created.ID == "" || created.URL != "https://x/y.jpg" || created.Label != "" {
		t.Errorf("Unexpected created image: %+v", created)
	}
	if !strings.Contains(rr.Body.String(), `"label":""`) {
		t.Errorf("Expected empty label in body, got %s", rr.Body.String())
	}

	for _, body := range []any{map[string]string{"label": "no url"}, map[string]string{"url": ""}, nil} {
		rr := api.do(t, http.MethodPost, "/api/images", token, body)
		if rr.Code != http.StatusBadRequest || message(t, rr) != controller.MsgMissingURL {
			t.Errorf("Expected 400 missing url for %v, got %d %s", body, rr.Code, rr.Body.String())
		}
	}

	if images, _ := api.catalog.List(context.Background()); len(images) != 1 {
		t.Errorf("Expected exactly 1 image, got %d", len(images))
	}
}

func TestListImagesNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	rr := api.do(t, http.MethodGet, "/api/images", "", nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("Expected empty array, got %d %s", rr.Code, rr.Body.String())
	}

	for i := 1; i <= 3; i++ {
		api.do(t, http.MethodPost, "/api/images", token, map[string]string{"url": fmt.Sprintf("https://x/%d.jpg", i), "label": fmt.Sprint(i)})
	}

	rr = api.do(t, http.MethodGet, "/api/images", "", nil)
	var images []models.ImageResponse
	json.Unmarshal(rr.Body.Bytes(), &images)
	if len(images) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(images))
	}
	for i, want := range []string{"3", "2", "1"} {
		if images[i].Label != want {
			t.Errorf("Position %d: expected label %s, got %s", i, want, images[i].Label)
		}
	}
}

func TestUpdateImage(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	img, _ := api.catalog.Create(context.Background(), "https://x/old.jpg", "Régi")
	path := "/api/images/" + img.ID.Hex()

	rr := api.do(t, http.MethodPut, path, token, map[string]string{"label": "Új"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	var updated models.ImageResponse
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Label != "Új" || updated.URL != "https://x/old.jpg" {
		t.Errorf("Omitted url should be unchanged, got %+v", updated)
	}

	rr = api.do(t, http.MethodPut, path, token, map[string]string{"url": "https://x/new.jpg"})
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.URL != "https://x/new.jpg" || updated.Label != "Új" {
		t.Errorf("Omitted label should be unchanged, got %+v", updated)
	}

	rr = api.do(t, http.MethodPut, path, token, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Empty update should succeed, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodPut, path, token, map[string]string{"url": ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty url, got %d", rr.Code)
	}

	for _, id := range []string{bson.NewObjectID().Hex(), "unknown-id"} {
		for _, body := range []map[string]string{{"label": "x"}, {"url": ""}} {
			rr = api.do(t, http.MethodPut, "/api/images/"+id, token, body)
			if rr.Code != http.StatusNotFound || message(t, rr) != "Kép nem található." {
				t.Errorf("Expected 404 for %s %v, got %d %s", id, body, rr.Code, rr.Body.String())
			}
		}
	}

	rr = api.do(t, http.MethodPut, path, "", map[string]string{"label": "x"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}
}

func TestDeleteImage(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	img, _ := api.catalog.Create(context.Background(), "https://x/y.jpg", "")
	path := "/api/images/" + img.ID.Hex()

	rr := api.do(t, http.MethodDelete, path, "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}

	rr = api.do(t, http.MethodDelete, path, token, nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != fmt.Sprintf(`{"id":"%s"}`, img.ID.Hex()) {
		t.Fatalf("Unexpected delete response: %d %s", rr.Code, rr.Body.String())
	}

	rr = api.do(t, http.MethodGet, "/api/images", "", nil)
	if strings.Contains(rr.Body.String(), img.ID.Hex()) {
		t.Error("Deleted image still listed")
	}

	rr = api.do(t, http.MethodDelete, path, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", rr.Code)
	}
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	const n = 25
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := api.do(t, http.MethodPost, "/api/images", token, map[string]string{"url": fmt.Sprintf("https://x/%d.jpg", i)})
			var created models.ImageResponse
			json.Unmarshal(rr.Body.Bytes(), &created)
			ids <- created.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if id == "" || seen[id] {
			t.Errorf("Missing or duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestLoginRateLimited(t *testing.T) {
	admins := &memAdmins{admins: map[string]*models.Admin{}}
	tokens := utils.NewTokenService("test-secret", 0)
	limiter := mw.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	router := gin.New()
	Register(router, controller.NewHandler(admins, tokens, newMemCatalog()), tokens, limiter)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"a","password":"b"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Expected 429 on third attempt, got %d", last)
	}
}

func TestViewerTokenCannotMutate(t *testing.T) {
	api := newTestAPI(t)
	viewer, _ := api.tokens.Issue("id", "guest", "viewer")

	rr := api.do(t, http.MethodPost, "/api/images", viewer, map[string]string{"url": "https://x/y.jpg"})
	if rr.Code != http.StatusUnauthorized || message(t, rr) != mw.MsgForbidden {
		t.Errorf("Expected 401 forbidden, got %d %s", rr.Code, rr.Body.String())
	}
	rr = api.do(t, http.MethodGet, "/api/auth/me", viewer, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Viewer should still reach /auth/me, got %d", rr.Code)
	}
}
