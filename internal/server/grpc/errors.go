package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/questboard/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeMap = []struct {
	err  error
	code codes.Code
}{
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrValidation, codes.InvalidArgument},
	{common.ErrSelfInterest, codes.InvalidArgument},
	{common.ErrEmailRegistered, codes.AlreadyExists},
	{common.ErrorForbidden, codes.PermissionDenied},
	{common.ErrInvalidState, codes.FailedPrecondition},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated},
}

// toStatus maps a service error onto a gRPC status. Known errors keep
// their message; anything else is logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, m := range codeMap {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}
