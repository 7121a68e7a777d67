package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/models"
)

// profileRepo is an in-memory profiles table.
type profileRepo struct {
	models.UserRepo
	users     map[uuid.UUID]*models.User
	updateErr error
}

func (p *profileRepo) CreateUser(ctx context.Context, req *models.SignupRequest) (*models.AuthSession, error) {
	u := &models.User{ID: uuid.New(), Email: req.Email, Username: req.Username, FullName: req.FullName, Role: req.Role}
	p.users[u.ID] = u
	return &models.AuthSession{UserID: u.ID, Email: u.Email, User: u}, nil
}

func (p *profileRepo) GetUser(ctx context.Context, id uuid.UUID, token string) (*models.User, error) {
	u, ok := p.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (p *profileRepo) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, token string) (*models.User, error) {
	if p.updateErr != nil {
		return nil, p.updateErr
	}
	u, ok := p.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["bio"].(string); ok {
		u.Bio = v
	}
	if v, ok := fields["location"].(string); ok {
		u.Location = v
	}
	if v, ok := fields["avatar_url"].(string); ok {
		u.AvatarURL = v
	}
	if v, ok := fields["languages"].([]string); ok {
		u.Languages = v
	}
	cp := *u
	return &cp, nil
}

func newUserFixture(logger *slog.Logger, users ...*models.User) (*UserService, *profileRepo, *stubGuides, *stubUploader) {
	repo := &profileRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	guides := newStubGuides()
	uploader := &stubUploader{}
	gs := NewGuideService(guides, repo, nil, logger)
	return NewUserService(repo, gs, uploader, logger), repo, guides, uploader
}

func TestUpdateProfileSyncsGuideReadModel(t *testing.T) {
	guide := &models.User{ID: uuid.New(), Username: "ama", FullName: "Ama Owusu", Role: models.RoleGuide}
	us, _, guides, _ := newUserFixture(discardLogger(), guide)

	user, err := us.UpdateProfile(context.Background(), guide.ID, map[string]interface{}{
		"bio":       "  Rainforest canopy walks  ",
		"location":  "Kakum",
		"languages": []interface{}{"en", "tw", "en"},
	}, "token")
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Bio != "Rainforest canopy walks" {
		t.Fatalf("bio not trimmed: %q", user.Bio)
	}
	if len(user.Languages) != 2 {
		t.Fatalf("languages not deduplicated: %v", user.Languages)
	}

	g, ok := guides.guides[guide.ID.String()]
	if !ok {
		t.Fatal("guide read model not upserted")
	}
	if g.Bio != "Rainforest canopy walks" || g.Location != "Kakum" {
		t.Fatalf("read model out of date: %+v", g)
	}
}

func TestUpdateProfileTravelerSkipsGuideSync(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "kojo", Role: models.RoleTraveler}
	us, _, guides, _ := newUserFixture(discardLogger(), u)

	if _, err := us.UpdateProfile(context.Background(), u.ID, map[string]interface{}{"bio": "Likes hikes"}, "token"); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if len(guides.guides) != 0 {
		t.Fatalf("traveler should not get a guide document: %v", guides.guides)
	}
}

func TestUpdateProfileGuideSyncFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	guide := &models.User{ID: uuid.New(), Username: "ama", Role: models.RoleGuide}
	us, _, guides, _ := newUserFixture(logger, guide)
	guides.upsertErr = errors.New("mongo unavailable")

	user, err := us.UpdateProfile(context.Background(), guide.ID, map[string]interface{}{"location": "Elmina"}, "token")
	if err != nil {
		t.Fatalf("profile write succeeded, expected no error, got %v", err)
	}
	if user == nil || user.Location != "Elmina" {
		t.Fatalf("expected the updated profile, got %+v", user)
	}
	if !strings.Contains(buf.String(), "Failed to sync guide read model") || !strings.Contains(buf.String(), "mongo unavailable") {
		t.Fatalf("sync failure not logged: %s", buf.String())
	}
}

func TestUpdateProfileRejectsProtectedFields(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "kojo", Role: models.RoleTraveler}
	us, repo, _, _ := newUserFixture(discardLogger(), u)

	for _, field := range []string{"role", "is_verified", "email"} {
		_, err := us.UpdateProfile(context.Background(), u.ID, map[string]interface{}{field: "x"}, "token")
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", field, err)
		}
	}
	if repo.users[u.ID].Role != models.RoleTraveler {
		t.Fatal("role must not change")
	}

	if _, err := us.UpdateProfile(context.Background(), u.ID, map[string]interface{}{"username": "ab"}, "token"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a short username, got %v", err)
	}
}

func TestSignUpGuideCreatesReadModel(t *testing.T) {
	us, _, guides, _ := newUserFixture(discardLogger())

	session, err := us.SignUp(context.Background(), &models.SignupRequest{
		Email:    "  Ama@Example.com ",
		Password: "Str0ng!Pass",
		Username: "ama",
		FullName: "Ama Owusu",
		Role:     models.RoleGuide,
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if session.Email != "ama@example.com" {
		t.Fatalf("email not normalized: %q", session.Email)
	}
	if _, ok := guides.guides[session.UserID.String()]; !ok {
		t.Fatal("guide read model not created on sign-up")
	}
}

func TestSignUpDefaultsToTraveler(t *testing.T) {
	us, repo, guides, _ := newUserFixture(discardLogger())

	session, err := us.SignUp(context.Background(), &models.SignupRequest{
		Email:    "kojo@example.com",
		Password: "Str0ng!Pass",
		Username: "kojo",
		FullName: "Kojo Asante",
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if repo.users[session.UserID].Role != models.RoleTraveler {
		t.Fatalf("expected traveler role, got %q", repo.users[session.UserID].Role)
	}
	if len(guides.guides) != 0 {
		t.Fatal("traveler should not get a guide document")
	}

	_, err = us.SignUp(context.Background(), &models.SignupRequest{
		Email:    "weak@example.com",
		Password: "password",
		Username: "weak",
		FullName: "Weak Password",
	})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a weak password, got %v", err)
	}
}

func TestUploadAvatarStoresURL(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "kojo", Role: models.RoleTraveler}
	us, repo, _, _ := newUserFixture(discardLogger(), u)

	url, err := us.UploadAvatar(context.Background(), u.ID, "data:image/png;base64,AAAA", "token")
	if err != nil {
		t.Fatalf("UploadAvatar returned error: %v", err)
	}
	if url == "" || repo.users[u.ID].AvatarURL != url {
		t.Fatalf("avatar url not stored: %q vs %q", url, repo.users[u.ID].AvatarURL)
	}
}

func TestUploadAvatarCleansUpWhenProfileWriteFails(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "kojo", Role: models.RoleTraveler}
	us, repo, _, uploader := newUserFixture(discardLogger(), u)
	repo.updateErr = errors.New("postgrest down")

	if _, err := us.UploadAvatar(context.Background(), u.ID, "data:image/png;base64,AAAA", "token"); err == nil {
		t.Fatal("expected an error")
	}
	if len(uploader.deleted) != 1 {
		t.Fatalf("uploaded image should be deleted, got %v", uploader.deleted)
	}

	if _, err := us.UploadAvatar(context.Background(), uuid.Nil, "x", "token"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a nil id, got %v", err)
	}
	if _, err := us.UploadAvatar(context.Background(), u.ID, "  ", "token"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty image, got %v", err)
	}
}

func TestRaceTimeoutGivesUpOnStuckCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := raceTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("raceTimeout waited for the stuck call")
	}

	want := errors.New("upload rejected")
	if err := raceTimeout(context.Background(), time.Second, func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected the call's own error, got %v", err)
	}
}
