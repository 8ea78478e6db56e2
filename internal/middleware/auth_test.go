package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

type tokenStub map[string]string

func (t tokenStub) ValidateJWT(token string) (string, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type lookupStub struct {
	getUserFn func(ctx context.Context, userID string) (*models.User, error)
}

func (s lookupStub) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.getUserFn(ctx, userID)
}

func echoUserID(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r.Context())))
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(tokenStub{"good": "u1"})(http.HandlerFunc(echoUserID))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"good", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tc.status, rec.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "u1", rec.Body.String())
		} else {
			assert.Contains(t, rec.Body.String(), models.CodeUnauthorized)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	lookup := lookupStub{getUserFn: func(_ context.Context, id string) (*models.User, error) {
		switch id {
		case "admin":
			return &models.User{ID: id, Email: "boss@example.com"}, nil
		case "player":
			return &models.User{ID: id, Email: "pat@example.com"}, nil
		case "broken":
			return nil, errors.New("db down")
		default:
			return nil, fmt.Errorf("user: %w", models.NewNotFoundError("user", id))
		}
	}}
	isAdmin := func(email string) bool { return email == "boss@example.com" }
	h := RequireAdmin(lookup, isAdmin)(http.HandlerFunc(echoUserID))

	cases := []struct {
		userID string
		status int
	}{
		{"admin", http.StatusOK},
		{"player", http.StatusForbidden},
		{"ghost", http.StatusForbidden},
		{"broken", http.StatusInternalServerError},
		{"", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		if tc.userID != "" {
			req = req.WithContext(WithUserID(req.Context(), tc.userID))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.userID)
	}
}

func TestGetUserID_Missing(t *testing.T) {
	assert.Equal(t, "", GetUserID(context.Background()))
}

func TestValidateWebSocketToken(t *testing.T) {
	_, err := ValidateWebSocketToken("", tokenStub{})
	assert.Error(t, err)

	id, err := ValidateWebSocketToken("good", tokenStub{"good": "u1"})
	assert.NoError(t, err)
	assert.Equal(t, "u1", id)
}
