package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/config"
	"unibooks/internal/core/services"
	"unibooks/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Minimal in-memory stand-ins for the store interfaces the gate needs.

type memSessionRepo struct {
	sessions map[string]*models.Session
}

func (r *memSessionRepo) Create(ctx context.Context, s *models.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *memSessionRepo) List(ctx context.Context) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context) error { return nil }

type memUserRepo struct{}

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error { return nil }
func (r *memUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *memUserRepo) GetByMatricule(ctx context.Context, matricule string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *memUserRepo) Update(ctx context.Context, u *models.User) error { return nil }
func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return nil, 0, nil
}
func (r *memUserRepo) ListStaff(ctx context.Context) ([]*models.User, error)       { return nil, nil }
func (r *memUserRepo) ListWithPayment(ctx context.Context) ([]*models.User, error) { return nil, nil }
func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (r *memUserRepo) ExistsByMatricule(ctx context.Context, matricule string) (bool, error) {
	return false, nil
}

type memActionLogRepo struct{}

func (r *memActionLogRepo) Create(ctx context.Context, e *models.ActionLog) error { return nil }
func (r *memActionLogRepo) List(ctx context.Context, offset, limit int) ([]*models.ActionLog, int64, error) {
	return nil, 0, nil
}

func gateTestApp(user *models.User, sessions *memSessionRepo) *fiber.App {
	cfg := &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: "test-secret", AccessTokenMins: 60},
		Session: config.SessionConfig{TTLHours: 24},
	}
	authService := services.NewAuthService(&memUserRepo{}, sessions, &memActionLogRepo{}, cfg)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		return c.Next()
	})
	app.Use(AccessGate(authService))

	ok := func(c *fiber.Ctx) error {
		return c.SendString("ok")
	}
	app.Get("/api/v1/dashboard", ok)
	app.Post(PasswordChangePath, ok)
	app.Post(LogoutPath, ok)
	app.Get(AdminPathPrefix+"/users", ok)
	app.Get(SubscriptionRequiredPath, ok)

	return app
}

func TestGateForcedPasswordChangeBlocksAndRedirects(t *testing.T) {
	user := &models.User{ID: 1, Email: "s@example.edu", ForcePasswordChange: true, IsActive: true}
	app := gateTestApp(user, &memSessionRepo{sessions: map[string]*models.Session{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var body response.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Redirect != PasswordChangePath {
		t.Errorf("redirect = %q, want %q", body.Redirect, PasswordChangePath)
	}
}

func TestGateForcedPasswordChangeExemptPaths(t *testing.T) {
	user := &models.User{ID: 1, Email: "s@example.edu", ForcePasswordChange: true, IsStaff: true, IsActive: true}
	app := gateTestApp(user, &memSessionRepo{sessions: map[string]*models.Session{}})

	cases := []struct {
		method string
		path   string
	}{
		{"POST", PasswordChangePath},
		{"POST", LogoutPath},
		{"GET", AdminPathPrefix + "/users"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		if err != nil {
			t.Fatalf("Test %s: %v", tc.path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("%s %s: expected 200, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestGateClearedFlagAllowsRequest(t *testing.T) {
	user := &models.User{ID: 1, Email: "s@example.edu", ForcePasswordChange: true, IsActive: true}
	app := gateTestApp(user, &memSessionRepo{sessions: map[string]*models.Session{}})

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 before the change, got %d", resp.StatusCode)
	}

	// Same identity after a successful password change.
	user.ForcePasswordChange = false
	resp, _ = app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200 after the change, got %d", resp.StatusCode)
	}
}

func TestGateExpiredSubscriptionLogsOut(t *testing.T) {
	paidAt := time.Now().AddDate(0, 0, -40)
	user := &models.User{ID: 5, Email: "s@example.edu", IsActive: true, PaidAt: &paidAt}
	user.ExpiresAt = user.ComputeExpiration()

	sessions := &memSessionRepo{sessions: map[string]*models.Session{}}
	mine, _ := models.NewSession(5, time.Hour)
	other, _ := models.NewSession(6, time.Hour)
	sessions.Create(context.Background(), mine)
	sessions.Create(context.Background(), other)

	app := gateTestApp(user, sessions)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var body response.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Redirect != SubscriptionRequiredPath {
		t.Errorf("redirect = %q, want %q", body.Redirect, SubscriptionRequiredPath)
	}

	if _, ok := sessions.sessions[mine.ID]; ok {
		t.Error("expected the lapsed user's session to be deleted")
	}
	if _, ok := sessions.sessions[other.ID]; !ok {
		t.Error("other user's session must survive")
	}
}

func TestGateSubscriptionExemptions(t *testing.T) {
	paidAt := time.Now().AddDate(0, 0, -40)

	// Staff are exempt from the subscription rule entirely.
	staff := &models.User{ID: 2, Email: "a@example.edu", IsStaff: true, IsActive: true, PaidAt: &paidAt}
	staff.ExpiresAt = staff.ComputeExpiration()
	app := gateTestApp(staff, &memSessionRepo{sessions: map[string]*models.Session{}})
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("staff: expected 200, got %d", resp.StatusCode)
	}

	// The renewal page itself stays reachable for a lapsed student.
	student := &models.User{ID: 3, Email: "s@example.edu", IsActive: true, PaidAt: &paidAt}
	student.ExpiresAt = student.ComputeExpiration()
	app = gateTestApp(student, &memSessionRepo{sessions: map[string]*models.Session{}})
	resp, _ = app.Test(httptest.NewRequest("GET", SubscriptionRequiredPath, nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("renewal page: expected 200, got %d", resp.StatusCode)
	}

	// No payment on record: the rule does not apply.
	fresh := &models.User{ID: 4, Email: "f@example.edu", IsActive: true}
	app = gateTestApp(fresh, &memSessionRepo{sessions: map[string]*models.Session{}})
	resp, _ = app.Test(httptest.NewRequest("GET", "/api/v1/dashboard", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("unpaid user: expected 200, got %d", resp.StatusCode)
	}
}
