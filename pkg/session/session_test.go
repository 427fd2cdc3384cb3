package session

import (
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardboxhq/cardbox/pkg/jwt"
)

func tokenWithPayload(t *testing.T, payload string) string {
	t.Helper()
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return "eyJhbGciOiJIUzI1NiJ9." + encoded + ".sig"
}

func TestDecodeIdentityRoundTrip(t *testing.T) {
	token, err := jwt.GenerateToken("user-42", "a@x.com", "test-secret", time.Hour)
	require.NoError(t, err)

	ident, err := DecodeIdentity(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", ident.ID)
	require.Equal(t, "a@x.com", ident.Email)
}

func TestDecodeIdentityFieldPrecedence(t *testing.T) {
	ident, err := DecodeIdentity(tokenWithPayload(t, `{"userId":"primary","sub":"secondary"}`))
	require.NoError(t, err)
	require.Equal(t, "primary", ident.ID)

	ident, err = DecodeIdentity(tokenWithPayload(t, `{"sub":"secondary"}`))
	require.NoError(t, err)
	require.Equal(t, "secondary", ident.ID)
}

func TestDecodeIdentityMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-a-token",
		"one.two",
		"a.!!!.c",
		tokenWithPayload(t, `not json`),
		tokenWithPayload(t, `{"email":"x@y.com"}`),
	}
	for _, tc := range cases {
		_, err := DecodeIdentity(tc)
		require.ErrorIs(t, err, ErrMalformedToken, "token %q", tc)
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cardbox", "session.json"))

	sess, err := store.Load()
	require.NoError(t, err)
	require.False(t, sess.IsAuthenticated())

	want := Session{User: Identity{ID: "u1", Email: "a@x.com"}, Token: "tok"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	got, err = store.Load()
	require.NoError(t, err)
	require.False(t, got.IsAuthenticated())
}

func TestManagerGateResolvesAfterLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	mgr := NewManager(store)
	require.Equal(t, StateUnknown, mgr.State())

	state, err := mgr.Resolve()
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, state)

	token, err := jwt.GenerateToken("u1", "a@x.com", "s", time.Hour)
	require.NoError(t, err)
	ident, err := mgr.Login(token, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "u1", ident.ID)
	require.Equal(t, StateAuthenticated, mgr.State())

	// fresh process: rehydrates straight to authenticated
	restarted := NewManager(store)
	state, err = restarted.Resolve()
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
	require.Equal(t, token, restarted.Token())

	require.NoError(t, restarted.Logout())
	require.Equal(t, StateUnauthenticated, restarted.State())

	// logout survives restart
	again := NewManager(store)
	state, err = again.Resolve()
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, state)
}

func TestManagerLoginWithUndecodablePayload(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	mgr := NewManager(store)

	_, err := mgr.Login("garbage-token", "a@x.com")
	require.ErrorIs(t, err, ErrMalformedToken)
	// token presence still authenticates; identity stays zero
	require.Equal(t, StateAuthenticated, mgr.State())
	require.Equal(t, "garbage-token", mgr.Token())
	require.Empty(t, mgr.Current().User.ID)
}
