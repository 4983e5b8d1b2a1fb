package services

import (
	"context"
	"errors"
	"testing"

	"unibooks/internal/adapters/persistence/models"
	"unibooks/internal/config"
	"unibooks/internal/pkg/password"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: "test-secret", AccessTokenMins: 60},
		Session: config.SessionConfig{TTLHours: 24},
	}
}

type authFixture struct {
	users      *stubUserRepo
	sessions   *stubSessionRepo
	actionLogs *stubActionLogRepo
	auth       *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:      newStubUserRepo(),
		sessions:   newStubSessionRepo(),
		actionLogs: newStubActionLogRepo(),
	}
	f.auth = NewAuthService(f.users, f.sessions, f.actionLogs, testConfig())
	return f
}

func (f *authFixture) addUser(t *testing.T, username, email, matricule, plaintext string) *models.User {
	t.Helper()
	hashed, err := password.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Username: username, Email: email, Password: hashed, IsActive: true}
	if matricule != "" {
		m := matricule
		u.Matricule = &m
	}
	return f.users.add(u)
}

func TestLoginIdentifierPrecedence(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	byUsername := f.addUser(t, "u1a2b3c4", "one@example.edu", "MAT-001", "password-one")
	byEmail := f.addUser(t, "u5d6e7f8", "two@example.edu", "MAT-002", "password-two")
	byMatricule := f.addUser(t, "u9a8b7c6", "three@example.edu", "MAT-003", "password-three")

	cases := []struct {
		name       string
		identifier string
		plaintext  string
		wantUserID uint
	}{
		{"technical username", "u1a2b3c4", "password-one", byUsername.ID},
		{"username case-insensitive", "U1A2B3C4", "password-one", byUsername.ID},
		{"email", "two@example.edu", "password-two", byEmail.ID},
		{"email case-insensitive", "TWO@EXAMPLE.EDU", "password-two", byEmail.ID},
		{"matricule", "MAT-003", "password-three", byMatricule.ID},
		{"matricule case-insensitive", "mat-003", "password-three", byMatricule.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := f.auth.Login(ctx, &LoginInput{Identifier: tc.identifier, Password: tc.plaintext})
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if result.User.ID != tc.wantUserID {
				t.Errorf("resolved user %d, want %d", result.User.ID, tc.wantUserID)
			}
			if result.AccessToken == "" {
				t.Error("expected an access token")
			}
			if _, err := f.sessions.GetByID(ctx, result.SessionID); err != nil {
				t.Error("expected a session row for the login")
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.addUser(t, "u1a2b3c4", "one@example.edu", "MAT-001", "password-one")

	if _, err := f.auth.Login(ctx, &LoginInput{Identifier: "one@example.edu", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.auth.Login(ctx, &LoginInput{Identifier: "nobody@example.edu", Password: "password-one"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown identifier: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := f.addUser(t, "u1a2b3c4", "one@example.edu", "", "password-one")
	user.IsActive = false

	if _, err := f.auth.Login(ctx, &LoginInput{Identifier: "one@example.edu", Password: "password-one"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("got %v, want ErrUserInactive", err)
	}
}

func TestChangePasswordClearsFlagAndInvalidatesOtherSessions(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := f.addUser(t, "u1a2b3c4", "one@example.edu", "", "old-password")
	user.ForcePasswordChange = true

	first, err := f.auth.Login(ctx, &LoginInput{Identifier: "one@example.edu", Password: "old-password"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.auth.Login(ctx, &LoginInput{Identifier: "one@example.edu", Password: "old-password"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	err = f.auth.ChangePassword(ctx, user.ID, second.SessionID, &ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "brand-new-password",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if user.ForcePasswordChange {
		t.Error("expected the forced password change flag to be cleared")
	}
	if !password.Verify("brand-new-password", user.Password) {
		t.Error("expected the new password to verify")
	}
	if _, err := f.sessions.GetByID(ctx, first.SessionID); err == nil {
		t.Error("expected the other session to be invalidated")
	}
	if _, err := f.sessions.GetByID(ctx, second.SessionID); err != nil {
		t.Error("expected the current session to survive")
	}

	found := false
	for _, entry := range f.actionLogs.entries {
		if entry.Action == "password changed" && entry.ActorID != nil && *entry.ActorID == user.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected a 'password changed' action log entry")
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := f.addUser(t, "u1a2b3c4", "one@example.edu", "", "old-password")

	err := f.auth.ChangePassword(ctx, user.ID, "", &ChangePasswordInput{
		CurrentPassword: "not-the-password",
		NewPassword:     "brand-new-password",
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.addUser(t, "u1a2b3c4", "one@example.edu", "MAT-001", "password-one")

	_, err := f.auth.Register(ctx, &RegisterInput{Email: "one@example.edu", Password: "password-two"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email: got %v, want ErrUserAlreadyExists", err)
	}

	_, err = f.auth.Register(ctx, &RegisterInput{Email: "new@example.edu", Matricule: "MAT-001", Password: "password-two"})
	if !errors.Is(err, ErrMatriculeUsed) {
		t.Errorf("duplicate matricule: got %v, want ErrMatriculeUsed", err)
	}
}

func TestValidateSessionReapsExpired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	session, err := models.NewSession(42, -1) // already expired
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.sessions.Create(ctx, session)

	if _, err := f.auth.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
	if _, err := f.sessions.GetByID(ctx, session.ID); err == nil {
		t.Error("expected the expired session to be reaped")
	}
}
