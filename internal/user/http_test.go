package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersync/ordersync/internal/db"
	"github.com/ordersync/ordersync/internal/events"
	"github.com/ordersync/ordersync/internal/web"
)

func newTestRouter(svc *Service) *echo.Echo {
	e := web.NewEcho(time.Second)
	RegisterRoutes(e, svc)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_CreateUser(t *testing.T) {
	svc, _, _ := newTestService()
	e := newTestRouter(svc)

	rec := doRequest(e, http.MethodPost, "/user-service/create", `{"email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Body.String()
	assert.NotEmpty(t, id)

	u, err := svc.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestHTTP_CreateUser_Invalid(t *testing.T) {
	svc, store, _ := newTestService()
	e := newTestRouter(svc)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "missing email", body: `{}`, code: http.StatusBadRequest},
		{name: "broken json", body: `{"email":`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/user-service/create", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	assert.Zero(t, store.puts)
}

func TestHTTP_CreateUser_StorageError(t *testing.T) {
	svc, store, _ := newTestService()
	store.putErr = db.NewStorageError("put user", errors.New("connection refused"))
	e := newTestRouter(svc)

	rec := doRequest(e, http.MethodPost, "/user-service/create", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTP_UpdateUser(t *testing.T) {
	svc, _, pub := newTestService()
	e := newTestRouter(svc)

	id, err := svc.CreateUser(context.Background(), "old@example.com")
	require.NoError(t, err)

	rec := doRequest(e, http.MethodPost, "/user-service/update", `{"id":"`+id+`","email":"new@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, []events.UserChanged{{ID: id, Email: "new@example.com"}}, pub.events())
}

func TestHTTP_UpdateUser_UnknownIDStillOK(t *testing.T) {
	svc, _, pub := newTestService()
	e := newTestRouter(svc)

	rec := doRequest(e, http.MethodPost, "/user-service/update", `{"id":"missing","email":"new@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.events())
}

func TestHTTP_UpdateUser_PublishFailureStillOK(t *testing.T) {
	svc, _, pub := newTestService()
	e := newTestRouter(svc)

	id, err := svc.CreateUser(context.Background(), "old@example.com")
	require.NoError(t, err)
	pub.err = events.ErrPublish

	rec := doRequest(e, http.MethodPost, "/user-service/update", `{"id":"`+id+`","email":"new@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_UpdateUser_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	e := newTestRouter(svc)

	rec := doRequest(e, http.MethodPost, "/user-service/update", `{"email":"new@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPost, "/user-service/update", `{"id":"u-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_GetUser(t *testing.T) {
	svc, _, _ := newTestService()
	e := newTestRouter(svc)

	id, err := svc.CreateUser(context.Background(), "ada@example.com")
	require.NoError(t, err)

	rec := doRequest(e, http.MethodGet, "/user-service/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, User{ID: id, Email: "ada@example.com"}, got)

	rec = doRequest(e, http.MethodGet, "/user-service/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
