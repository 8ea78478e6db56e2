package services

import (
	"context"
	"testing"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newUserFixture() (*memStore, *UserService) {
	store := newMemStore()
	return store, NewUserService(memUsers{store}, testSecret)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store, svc := newUserFixture()

	res, err := svc.Register(ctx, RegisterInput{
		Email:       "  Alice@Example.com ",
		Password:    "correct horse",
		DisplayName: "Alice",
		Username:    "Alice_P",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "alice_p", res.User.Username)
	assert.NotEqual(t, "correct horse", store.user(res.User.ID).PasswordHash)

	userID, err := svc.ValidateJWT(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	login, err := svc.Login(ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong password")
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestUserService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newUserFixture()

	cases := []RegisterInput{
		{Email: "not-an-email", Password: "longenough", DisplayName: "A"},
		{Email: "a@example.com", Password: "short", DisplayName: "A"},
		{Email: "a@example.com", Password: "longenough", DisplayName: " "},
		{Email: "a@example.com", Password: "longenough", DisplayName: "A", Username: "no spaces allowed"},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		assert.True(t, models.HasCode(err, models.CodeValidation), "input %+v", in)
	}
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, svc := newUserFixture()

	in := RegisterInput{Email: "a@example.com", Password: "longenough", DisplayName: "A"}
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	_, err = svc.Register(ctx, in)
	assert.True(t, models.HasCode(err, models.CodeConflict))
}

func TestUserService_DefaultUsernameFromEmail(t *testing.T) {
	res, err := func() (*AuthResult, error) {
		_, svc := newUserFixture()
		return svc.Register(context.Background(), RegisterInput{Email: "Jo+Dink@example.com", Password: "longenough", DisplayName: "Jo"})
	}()
	require.NoError(t, err)
	assert.Equal(t, "jodink", res.User.Username)
	assert.Equal(t, "jo_", usernameFromEmail("jo@example.com"))
}

func TestUserService_ValidateJWT(t *testing.T) {
	_, svc := newUserFixture()

	token, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)
	id, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	other := NewUserService(nil, "other-secret")
	_, err = other.ValidateJWT(token)
	assert.Error(t, err)

	expired := NewUserService(nil, testSecret)
	expired.now = func() time.Time { return time.Now().AddDate(-2, 0, 0) }
	old, err := expired.GenerateJWT("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateJWT(old)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := none.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateJWT(signed)
	assert.Error(t, err, "token without user_id is rejected")
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store, svc := newUserFixture()
	seedUsers(store, "u1")

	name := "  New Name "
	user, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.DisplayName)
	assert.Equal(t, "u1", store.user("u1").Username)

	bad := "x"
	_, err = svc.UpdateProfile(ctx, "u1", UpdateProfileInput{Username: &bad})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.UpdateProfile(ctx, "missing", UpdateProfileInput{})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserService_SetPushToken(t *testing.T) {
	ctx := context.Background()
	store, svc := newUserFixture()
	seedUsers(store, "u1")

	require.NoError(t, svc.SetPushToken(ctx, "u1", "device-1"))
	require.NotNil(t, store.user("u1").PushToken)
	assert.Equal(t, "device-1", *store.user("u1").PushToken)

	require.NoError(t, svc.SetPushToken(ctx, "u1", ""))
	assert.Nil(t, store.user("u1").PushToken)

	err := svc.SetPushToken(ctx, "missing", "x")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserService_Search(t *testing.T) {
	ctx := context.Background()
	store, svc := newUserFixture()
	for _, name := range []string{"dinkmaster", "dinko", "drop_shot", "ernie"} {
		store.addUser(&models.User{ID: name, Username: name, DisplayName: name})
	}

	_, err := svc.Search(ctx, " d ")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	res, err := svc.Search(ctx, "DINK")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "dinkmaster", res[0].Username)
	assert.Equal(t, "dinko", res[1].Username)
}
