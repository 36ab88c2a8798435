package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/notesvc/internal/auth"
	"github.com/patric-chuzhbe/notesvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/notesvc/internal/logger"
	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/service"
	"github.com/patric-chuzhbe/notesvc/internal/sharetoken"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	err := logger.Init("debug")
	require.NoError(t, err)

	db, err := memorystorage.New()
	require.NoError(t, err)

	theAuth := auth.New(db, []byte("0123456789abcdef"), time.Hour, bcrypt.MinCost)
	theService := service.New(db, theAuth, sharetoken.New(sharetoken.DefaultLength))

	srv := httptest.NewServer(New(theService, db, theAuth))
	t.Cleanup(srv.Close)

	return srv
}

func registerUser(t *testing.T, srv *httptest.Server, username, email, password string) {
	t.Helper()

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.RegisterRequest{Username: username, Email: email, Password: password}).
		Post(srv.URL + "/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
}

func loginUser(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()

	var tokenResponse models.TokenResponse
	resp, err := resty.New().R().
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&tokenResponse).
		Post(srv.URL + "/token")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, "bearer", tokenResponse.TokenType)
	require.NotEmpty(t, tokenResponse.AccessToken)

	return tokenResponse.AccessToken
}

func TestRegisterDuplicate(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")

	var errResponse models.ErrorResponse
	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(models.RegisterRequest{Username: "alice", Email: "other@x.com", Password: "pw123"}).
		SetError(&errResponse).
		Post(srv.URL + "/register")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "Username or email already registered", errResponse.Detail)
}

func TestRegisterMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name string
		body string
	}{
		{
			name: "not json",
			body: "this is not json",
		},
		{
			name: "missing password",
			body: `{"username": "alice", "email": "a@x.com"}`,
		},
		{
			name: "invalid email",
			body: `{"username": "alice", "email": "not-an-email", "password": "pw123"}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetHeader("Content-Type", "application/json").
				SetBody(testCase.body).
				Post(srv.URL + "/register")
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		})
	}
}

func TestTokenWithBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")

	var errResponse models.ErrorResponse
	resp, err := resty.New().R().
		SetFormData(map[string]string{
			"username": "alice",
			"password": "wrong",
		}).
		SetError(&errResponse).
		Post(srv.URL + "/token")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, "Incorrect username or password", errResponse.Detail)
}

func TestNotesRequireAuthentication(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		url    string
	}{
		{name: "list", method: http.MethodGet, url: "/notes"},
		{name: "create", method: http.MethodPost, url: "/notes"},
		{name: "update", method: http.MethodPut, url: "/notes/1"},
		{name: "delete", method: http.MethodDelete, url: "/notes/1"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := resty.New().R()
			req.Method = testCase.method
			req.URL = srv.URL + testCase.url

			resp, err := req.Send()
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
		})
	}
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")
	registerUser(t, srv, "bob", "b@x.com", "pw456")
	aliceToken := loginUser(t, srv, "alice", "pw123")
	bobToken := loginUser(t, srv, "bob", "pw456")

	var created models.NoteResponse
	resp, err := resty.New().R().
		SetAuthToken(aliceToken).
		SetHeader("Content-Type", "application/json").
		SetBody(models.NoteCreateRequest{Title: "Grocery", Content: "milk"}).
		SetResult(&created).
		Post(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = resty.New().R().
		SetAuthToken(bobToken).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"title": "stolen"}`).
		Put(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = resty.New().R().
		SetAuthToken(bobToken).
		Delete(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestSharedNoteLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// The end-to-end flow: register, login, create, list, publish, read shared.
	registerUser(t, srv, "alice", "a@x.com", "pw123")
	token := loginUser(t, srv, "alice", "pw123")

	var created models.NoteResponse
	resp, err := resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(models.NoteCreateRequest{Title: "Grocery", Content: "milk"}).
		SetResult(&created).
		Post(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.False(t, created.IsPublic)
	assert.Len(t, created.ShareID, sharetoken.DefaultLength)

	_, err = time.Parse(time.RFC3339, created.CreatedAt)
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, created.UpdatedAt)
	assert.NoError(t, err)

	var listed []models.NoteResponse
	resp, err = resty.New().R().
		SetAuthToken(token).
		SetResult(&listed).
		Get(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, listed, 1)
	assert.Equal(t, "Grocery", listed[0].Title)
	assert.False(t, listed[0].IsPublic)

	// The note is private: the share token alone does not grant access.
	resp, err = resty.New().R().Get(srv.URL + "/shared/" + created.ShareID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	var updated models.NoteResponse
	resp, err = resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"is_public": true}`).
		SetResult(&updated).
		Put(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.True(t, updated.IsPublic)
	assert.Equal(t, created.ShareID, updated.ShareID)

	var shared models.SharedNoteResponse
	resp, err = resty.New().R().
		SetResult(&shared).
		Get(srv.URL + "/shared/" + created.ShareID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "Grocery", shared.Title)
	assert.Equal(t, "milk", shared.Content)
	assert.NotEmpty(t, shared.CreatedAt)

	// Unpublish: the same share token returns 404 again.
	resp, err = resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"is_public": false}`).
		Put(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = resty.New().R().Get(srv.URL + "/shared/" + created.ShareID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestDeleteNoteFlow(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")
	token := loginUser(t, srv, "alice", "pw123")

	var created models.NoteResponse
	resp, err := resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(models.NoteCreateRequest{Title: "Grocery", Content: "milk"}).
		SetResult(&created).
		Post(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var message models.MessageResponse
	resp, err = resty.New().R().
		SetAuthToken(token).
		SetResult(&message).
		Delete(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "Note deleted successfully", message.Message)

	resp, err = resty.New().R().
		SetAuthToken(token).
		Delete(fmt.Sprintf("%s/notes/%d", srv.URL, created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestUpdateUnknownNoteID(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")
	token := loginUser(t, srv, "alice", "pw123")

	resp, err := resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"title": "x"}`).
		Put(srv.URL + "/notes/12345")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"title": "x"}`).
		Put(srv.URL + "/notes/not-a-number")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestPingHandler(t *testing.T) {
	srv := newTestServer(t)

	resp, err := resty.New().R().Get(srv.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestGetNotesResponseShape(t *testing.T) {
	srv := newTestServer(t)

	registerUser(t, srv, "alice", "a@x.com", "pw123")
	token := loginUser(t, srv, "alice", "pw123")

	resp, err := resty.New().R().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(models.NoteCreateRequest{Title: "Grocery", Content: "milk"}).
		Post(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	listResp, err := resty.New().R().
		SetAuthToken(token).
		Get(srv.URL + "/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode())

	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(listResp.Body(), &raw))
	require.Len(t, raw, 1)

	for _, field := range []string{"id", "title", "content", "is_public", "share_id", "created_at", "updated_at"} {
		assert.Containsf(t, raw[0], field, "field %q missing from the note object", field)
	}
}
