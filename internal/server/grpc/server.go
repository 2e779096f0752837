// Package grpc exposes the Quest Board services over gRPC. The service is
// described by hand in serviceDesc and carries structpb envelopes; see
// package api for the contract.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the account part of the API.
type UserService interface {
	Register(ctx context.Context, reg models.Registration) (string, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Services bundles what the handlers call into.
type Services struct {
	Users         UserService
	Profiles      *services.ProfileService
	Media         *services.MediaService
	Quests        *services.QuestService
	Notifications *services.NotificationService
	Conversations *services.ConversationService
	Watch         *services.WatchService
}

type GRPCServer struct {
	address   string
	svc       Services
	logger    logging.Logger
	jwtSecret []byte

	// stopping is done once Serve begins shutting down; Watch streams
	// end with it so GracefulStop does not wait on them.
	stopping context.Context
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
		stopping:  context.Background(),
	}
}

// NewServer creates a grpc.Server with the auth interceptors and the
// Quest Board service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully. Open Watch streams end when their context is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()
	s.stopping = ctx

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
