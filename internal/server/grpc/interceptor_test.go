package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/server/auth"
	"github.com/dmitrijs2005/questboard/internal/server/services"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(t *testing.T) *GRPCServer {
	t.Helper()
	st := store.NewMemoryStore(logging.Nop{})
	profiles := services.NewProfileService(st, logging.Nop{})
	require.NoError(t, profiles.Create(context.Background(), models.Profile{ID: "alice", Name: "Alice A"}))
	return NewGRPCServer("", logging.Nop{}, Services{Profiles: profiles}, testSecret)
}

func withToken(t *testing.T, userID string, validity time.Duration) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), validity)
	require.NoError(t, err)
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(api.AccessTokenHeader, token))
}

func TestInterceptor_PublicMethodSkipsAuth(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodLogin)}

	called := false
	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		_, ok := session.FromContext(ctx)
		assert.False(t, ok)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_Rejects(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodPostQuest)}
	handler := func(context.Context, any) (any, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}

	tests := []struct {
		name    string
		ctx     context.Context
		message string
	}{
		{"missing", context.Background(), "missing token"},
		{"expired", withToken(t, "alice", -time.Minute), "token expired"},
		{"garbage", metadata.NewIncomingContext(context.Background(), metadata.Pairs(api.AccessTokenHeader, "x.y.z")), "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.accessTokenInterceptor(tt.ctx, nil, info, handler)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.message, st.Message())
		})
	}
}

func TestInterceptor_PlacesIdentity(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodPostQuest)}

	_, err := s.accessTokenInterceptor(withToken(t, "alice", time.Hour), nil, info, func(ctx context.Context, req any) (any, error) {
		id, ok := session.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, session.Identity{UserID: "alice", DisplayName: "Alice A"}, id)
		return nil, nil
	})
	require.NoError(t, err)
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStreamInterceptor(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.StreamServerInfo{FullMethod: api.FullMethod(api.MethodWatch), IsServerStream: true}

	err := s.streamAccessTokenInterceptor(nil, &fakeStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = s.streamAccessTokenInterceptor(nil, &fakeStream{ctx: withToken(t, "alice", time.Hour)}, info, func(_ any, ss grpc.ServerStream) error {
		id, ok := session.FromContext(ss.Context())
		require.True(t, ok)
		assert.Equal(t, "alice", id.UserID)
		return nil
	})
	require.NoError(t, err)
}
