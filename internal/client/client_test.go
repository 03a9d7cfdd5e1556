package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/models"
	"inventory-dashboard/internal/testutil"
)

func session() *auth.Session {
	return &auth.Session{Token: testutil.Token}
}

func TestLogin(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c := New(api.URL())

	resp, err := c.Login(context.Background(), testutil.Username, testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, testutil.Token, resp.Token)
	assert.Equal(t, "Administrator", resp.User.Name)
}

func TestLogin_BadCredentials(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c := New(api.URL())

	_, err := c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestLogin_DefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "a", "b")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Login failed", apiErr.Message)
}

func TestLogin_ServerErrorIsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database down"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "a", "b")
	assert.True(t, errors.Is(err, ErrAuth))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "database down", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestLogin_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Login(context.Background(), "a", "b")
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestList_PreservesOrderAndSendsBearer(t *testing.T) {
	now := time.Now()
	api := testutil.NewFakeAPI(t,
		testutil.Item("b", "Bea", "IT", "XPS", models.StatusFunctional, now),
		testutil.Item("a", "Al", "HR", "Latitude", models.StatusNonFunctional, now),
	)
	c := New(api.URL()).WithSession(session())

	items, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestList_EmptyCollection(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	items, err := New(api.URL()).WithSession(session()).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestList_WithoutSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	_, err := New(api.URL()).List(context.Background())
	assert.True(t, errors.Is(err, ErrAuth))
	assert.Empty(t, api.Requests(), "no request should be sent without a token")
}

func TestList_RejectedToken(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c := New(api.URL()).WithSession(&auth.Session{Token: "stale"})
	_, err := c.List(context.Background())
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestCreateUpdateDelete(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c := New(api.URL()).WithSession(session())
	ctx := context.Background()

	in := testutil.Item("", "Dana", "Finance", "ThinkPad", models.StatusFunctional, time.Now()).Input()
	created, err := c.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Dana", created.FirstName)

	in.Status = models.StatusNonFunctional
	updated, err := c.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonFunctional, updated.Status)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.Empty(t, api.Items())

	err = c.Delete(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreate_Validation(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c := New(api.URL()).WithSession(session())

	_, err := c.Create(context.Background(), models.ItemInput{FirstName: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "staffId")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   error
		code   string
		http   int
	}{
		{http.StatusBadRequest, ErrValidation, "VALIDATION_ERROR", http.StatusUnprocessableEntity},
		{http.StatusUnprocessableEntity, ErrValidation, "VALIDATION_ERROR", http.StatusUnprocessableEntity},
		{http.StatusUnauthorized, ErrAuth, "AUTH_ERROR", http.StatusUnauthorized},
		{http.StatusNotFound, ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{http.StatusInternalServerError, ErrServer, "SERVER_ERROR", http.StatusBadGateway},
		{http.StatusServiceUnavailable, ErrServer, "SERVER_ERROR", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := testutil.NewFakeAPI(t)
			api.Fail(tt.status)
			_, err := New(api.URL()).WithSession(session()).List(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.code, Code(err))
			assert.Equal(t, tt.http, HTTPStatus(err))
		})
	}
}

func TestInvalidResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).WithSession(session()).List(context.Background())
	assert.True(t, errors.Is(err, ErrServer))
}

func TestObserver(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	var calls []string
	c := New(api.URL(), WithObserver(func(op, outcome string) {
		calls = append(calls, op+":"+outcome)
	})).WithSession(session())

	_, _ = c.List(context.Background())
	_ = c.Delete(context.Background(), "missing")

	assert.Equal(t, []string{"list:ok", "delete:NOT_FOUND"}, calls)
}

func TestWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(20*time.Millisecond)).WithSession(session())
	_, err := c.List(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork))

	assert.Zero(t, New(srv.URL, WithTimeout(0)).http.Timeout)
}

func TestWithSession_DoesNotMutate(t *testing.T) {
	base := New("http://example.invalid")
	bound := base.WithSession(session())
	assert.Nil(t, base.session)
	assert.NotNil(t, bound.session)
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithHTTPClient(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	rt := &countingTransport{}
	c := New(api.URL(), WithHTTPClient(&http.Client{Transport: rt}), WithTimeout(time.Second))

	_, err := c.WithSession(session()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rt.calls)
	assert.Equal(t, time.Second, c.http.Timeout)
}
