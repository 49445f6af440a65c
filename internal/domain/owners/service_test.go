package owners

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vet-clinic/internal/domain/auth"
	"vet-clinic/internal/domain/validation"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Owner
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Owner{}}
}

func (r *testRepo) Create(ctx context.Context, o Owner) error {
	if _, ok := r.byID[o.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Owner, error) {
	o, ok := r.byID[id]
	if !ok {
		return Owner{}, errRepoNotFound
	}
	return o, nil
}

func (r *testRepo) Update(ctx context.Context, o Owner) error {
	if _, ok := r.byID[o.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) List(ctx context.Context) ([]Owner, error) {
	out := make([]Owner, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	return out, nil
}

type testCreds struct {
	byOwner map[string]auth.Credential
}

func newTestCreds() *testCreds {
	return &testCreds{byOwner: map[string]auth.Credential{}}
}

func (r *testCreds) Create(ctx context.Context, c auth.Credential) error {
	r.byOwner[c.OwnerID] = c
	return nil
}

func (r *testCreds) GetByEmail(ctx context.Context, email string) (auth.Credential, error) {
	for _, c := range r.byOwner {
		if c.Email == email {
			return c, nil
		}
	}
	return auth.Credential{}, errRepoNotFound
}

func (r *testCreds) GetByOwnerID(ctx context.Context, ownerID string) (auth.Credential, error) {
	c, ok := r.byOwner[ownerID]
	if !ok {
		return auth.Credential{}, errRepoNotFound
	}
	return c, nil
}

func (r *testCreds) Update(ctx context.Context, c auth.Credential) error {
	if _, ok := r.byOwner[c.OwnerID]; !ok {
		return errRepoNotFound
	}
	r.byOwner[c.OwnerID] = c
	return nil
}

func (r *testCreds) Delete(ctx context.Context, ownerID string) error {
	if _, ok := r.byOwner[ownerID]; !ok {
		return errRepoNotFound
	}
	delete(r.byOwner, ownerID)
	return nil
}

type testSessions struct{}

func (testSessions) Create(ctx context.Context, s auth.Session) error { return nil }
func (testSessions) Get(ctx context.Context, token string) (auth.Session, error) {
	return auth.Session{}, errRepoNotFound
}
func (testSessions) Delete(ctx context.Context, token string) error          { return nil }
func (testSessions) DeleteByOwner(ctx context.Context, ownerID string) error { return nil }
func (testSessions) SetFlash(ctx context.Context, token string, f auth.Flash) error {
	return nil
}
func (testSessions) TakeFlash(ctx context.Context, token string) (auth.Flash, bool, error) {
	return auth.Flash{}, false, nil
}

type testResets struct{}

func (testResets) Create(ctx context.Context, t auth.ResetToken) error { return nil }
func (testResets) Get(ctx context.Context, token string) (auth.ResetToken, error) {
	return auth.ResetToken{}, errRepoNotFound
}
func (testResets) MarkUsed(ctx context.Context, token string) error { return nil }

// -------------------------
// Tests
// -------------------------

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo, *testCreds) {
	repo := newTestRepo()
	creds := newTestCreds()
	authSvc := auth.NewService(creds, testSessions{}, testResets{})
	svc := NewService(repo, authSvc)
	svc.now = func() time.Time { return testNow }
	return svc, repo, creds
}

func validInput() RegisterInput {
	dob := time.Date(2000, time.January, 15, 0, 0, 0, 0, time.UTC)
	return RegisterInput{
		Email:           "ana@example.com",
		Password:        "Passw0rd1",
		ConfirmPassword: "Passw0rd1",
		FirstName:       "Ana",
		LastName:        "García",
		DateOfBirth:     &dob,
	}
}

func TestRegister_OK(t *testing.T) {
	svc, repo, creds := newTestService()

	o, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID == "" {
		t.Fatal("expected generated owner id")
	}
	if _, ok := repo.byID[o.ID]; !ok {
		t.Fatal("owner not persisted")
	}

	c, err := creds.GetByOwnerID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("credential not created: %v", err)
	}
	if !c.HasRole(auth.RoleUser) {
		t.Fatal("expected user role on new credential")
	}
	if c.HasRole(auth.RoleAdmin) {
		t.Fatal("self-registered owner must not be admin")
	}
}

func TestRegister_AgeBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		dob     time.Time
		wantErr bool
	}{
		{"just turned 18", time.Date(2007, time.June, 1, 0, 0, 0, 0, time.UTC), false},
		{"17", time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"exactly 100", time.Date(1925, time.June, 1, 0, 0, 0, 0, time.UTC), false},
		{"101", time.Date(1924, time.March, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			in := validInput()
			dob := tc.dob
			in.DateOfBirth = &dob

			_, err := svc.Register(context.Background(), in)
			ve := validation.AsError(err)
			if tc.wantErr {
				if ve == nil || len(ve.Fields["date_of_birth"]) == 0 {
					t.Fatalf("expected date_of_birth error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, repo, _ := newTestService()

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	in := validInput()
	in.Email = "ANA@example.com" // mismo email, distinta capitalización
	_, err := svc.Register(context.Background(), in)

	ve := validation.AsError(err)
	if ve == nil || len(ve.Fields["email"]) == 0 {
		t.Fatalf("expected email taken error, got %v", err)
	}

	// el perfil huérfano del segundo intento no debe quedar
	if len(repo.byID) != 1 {
		t.Fatalf("expected 1 persisted owner, got %d", len(repo.byID))
	}
}

func TestRegister_PasswordPolicy(t *testing.T) {
	cases := []struct {
		name     string
		password string
	}{
		{"too short", "short1"},
		{"no digit", "sinDigitos"},
		{"no letter", "123456789"},
		// el hasheo rechaza entradas de más de 72 bytes; tiene que
		// salir como error de campo, no como falla del server
		{"too long", strings.Repeat("a", 79) + "1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			in := validInput()
			in.Password = tc.password
			in.ConfirmPassword = tc.password

			_, err := svc.Register(context.Background(), in)
			ve := validation.AsError(err)
			if ve == nil || len(ve.Fields["password"]) == 0 {
				t.Fatalf("expected password error, got %v", err)
			}
		})
	}
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, _, _ := newTestService()

	in := validInput()
	in.ConfirmPassword = "Other0000"

	_, err := svc.Register(context.Background(), in)
	ve := validation.AsError(err)
	if ve == nil || len(ve.Fields["confirm_password"]) == 0 {
		t.Fatalf("expected confirm_password error, got %v", err)
	}
}

func TestAdminUpdate_EmailChangeSyncsLogin(t *testing.T) {
	svc, _, creds := newTestService()

	o, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	dob := *o.DateOfBirth
	_, err = svc.AdminUpdate(context.Background(), o.ID, AdminUpdateInput{
		Email:       "nueva@example.com",
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		DateOfBirth: &dob,
	})
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}

	c, err := creds.GetByOwnerID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("credential lookup failed: %v", err)
	}
	if c.Email != "nueva@example.com" {
		t.Fatalf("login email not synced, got %q", c.Email)
	}
}

func TestDelete_RemovesProfileAndCredential(t *testing.T) {
	svc, repo, creds := newTestService()

	o, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.Delete(context.Background(), o.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := repo.byID[o.ID]; ok {
		t.Fatal("owner profile still present")
	}
	if _, err := creds.GetByOwnerID(context.Background(), o.ID); err == nil {
		t.Fatal("credential still present")
	}
}
