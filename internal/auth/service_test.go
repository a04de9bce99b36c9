package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"college/internal/apperr"
	"college/internal/model"
	"college/internal/store"
	"college/internal/store/storetest"
	"college/internal/users"
)

func newTestService(t *testing.T) (*Service, *users.Directory) {
	t.Helper()
	return newTestServiceOn(t, storetest.New(t))
}

func newTestServiceOn(t *testing.T, db *store.DB) (*Service, *users.Directory) {
	t.Helper()
	dir := users.NewDirectory(db.Client)
	svc := NewService(dir, newTestHasher(t, bcrypt.MinCost, 4), newTestTokens(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, dir
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@college.edu", Password: "s3cret", Role: model.RoleStudent})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.Equal(t, "ada@college.edu", u.Email)

	res, err := svc.Login(ctx, "ada@college.edu", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.Equal(t, model.RoleStudent, res.Role)

	p, err := svc.tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: u.ID, Role: model.RoleStudent}, p)
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	svc, dir := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Name: "Bo", Email: "bo@college.edu", Password: "plain", Role: model.RoleTeacher})
	require.NoError(t, err)

	acct, err := dir.FindByEmail(context.Background(), "bo@college.edu")
	require.NoError(t, err)
	assert.NotEqual(t, "plain", acct.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("plain")))
	assert.Equal(t, "TEACHER", acct.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Cy", Email: "cy@college.edu", Password: "right", Role: model.RoleStudent})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "cy@college.edu", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@college.edu", "right")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(t, unknownEmail, apperr.ErrUnauthorized)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Di", Email: "di@college.edu", Password: "pw", Role: model.RoleStudent}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	storetest.ForEachBackend(t, 8, func(t *testing.T, db *store.DB) {
		svc, _ := newTestServiceOn(t, db)
		ctx := context.Background()

		const n = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			start     = make(chan struct{})
			successes int
			taken     int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.Register(ctx, RegisterInput{Name: "Race", Email: "race@college.edu", Password: "pw", Role: model.RoleStudent})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrEmailTaken):
					taken++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, taken)

		var rows int
		require.NoError(t, db.Client.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE email = $1`, "race@college.edu").Scan(&rows))
		assert.Equal(t, 1, rows)
	})
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: " ", Email: "x@college.edu", Password: "pw", Role: model.RoleStudent})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "x@college.edu", Password: "", Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "x@college.edu", Password: "pw", Role: "DEAN"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginUnknownStoredRoleFallsBackToStudent(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	hash, err := svc.hasher.Hash(ctx, "pw")
	require.NoError(t, err)
	acct, err := dir.Create(ctx, users.NewAccount{Name: "Legacy", Email: "legacy@college.edu", PasswordHash: hash, Role: "DEAN"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "legacy@college.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, res.UserID)
	assert.Equal(t, model.RoleStudent, res.Role)
}

func TestLoginExpiryFollowsTokenTTL(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Ed", Email: "ed@college.edu", Password: "pw", Role: model.RoleStudent})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ed@college.edu", "pw")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 5*time.Second)
}
