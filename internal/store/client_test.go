package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/alice/bob", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":"m1","senderId":"bob","receiverId":"alice","content":"hi","type":"text","isSeen":true},
			{"id":"m2","senderId":"alice","receiverId":"bob","content":"hello","type":"text"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	msgs, err := c.History(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, domain.UserID("bob"), msgs[0].SenderID)
	assert.True(t, msgs[0].IsSeen)
	assert.False(t, msgs[1].IsSeen)
}

func TestHistoryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	_, err := c.History(context.Background(), "alice", "bob")
	require.Error(t, err)
}

func TestPartnerUnwrapsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/bob", r.URL.Path)
		io.WriteString(w, `{"data":{"id":"bob","firstName":"Bob","lastName":"Smith"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	u, err := c.Partner(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("bob"), u.ID)
	assert.Equal(t, "Bob", u.FirstName)
}

func TestPartnerEmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":null}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	_, err := c.Partner(context.Background(), "bob")
	require.Error(t, err)
}

func TestUsersUnwrapsResultEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		io.WriteString(w, `{"data":{"result":[{"id":"bob","firstName":"Bob"},{"id":"carol","firstName":"Carol"}]}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.UserID("carol"), users[1].ID)
}

func TestNotifications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/alice", r.URL.Path)
		io.WriteString(w, `[{"id":"n1","senderId":"bob","message":"hi"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL+"/upload")
	ns, err := c.Notifications(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, domain.UserID("bob"), ns[0].SenderID)
}

func TestUploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "cat.png", header.Filename)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "png bytes", string(body))
		io.WriteString(w, `{"url":"https://cdn.example.com/abc123","fileName":"cat.png"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	url, name, err := c.Upload(context.Background(), strings.NewReader("png bytes"), "cat.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/abc123", url)
	assert.Equal(t, "cat.png", name)
}

func TestUploadFallsBackToLocalFileName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"url":"https://cdn.example.com/abc123"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	_, name, err := c.Upload(context.Background(), strings.NewReader("x"), "voice.ogg")
	require.NoError(t, err)
	assert.Equal(t, "voice.ogg", name)
}

func TestUploadFailureWrapsDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	_, _, err := c.Upload(context.Background(), strings.NewReader("x"), "cat.png")
	require.ErrorIs(t, err, domain.ErrUploadFailure)
}
