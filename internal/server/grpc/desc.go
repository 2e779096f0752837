package grpc

import (
	"context"

	"github.com/dmitrijs2005/questboard/internal/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// unary builds a MethodDesc around a typed handler. The request Struct is
// decoded into Req before the handler runs and the Resp is encoded back.
func unary[Req, Resp any](name string, fn func(*GRPCServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*GRPCServer)
			call := func(ctx context.Context, req any) (any, error) {
				var r Req
				if err := api.Decode(req.(*structpb.Struct), &r); err != nil {
					return nil, status.Error(codes.InvalidArgument, err.Error())
				}
				resp, err := fn(s, ctx, r)
				if err != nil {
					return nil, s.toStatus(ctx, err)
				}
				out, err := api.Encode(resp)
				if err != nil {
					return nil, s.toStatus(ctx, err)
				}
				return out, nil
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.FullMethod(name)}
			return interceptor(ctx, in, info, call)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.MethodPing, (*GRPCServer).Ping),
		unary(api.MethodRegister, (*GRPCServer).Register),
		unary(api.MethodLogin, (*GRPCServer).Login),
		unary(api.MethodRefreshToken, (*GRPCServer).RefreshToken),
		unary(api.MethodLogout, (*GRPCServer).Logout),
		unary(api.MethodGetProfile, (*GRPCServer).GetProfile),
		unary(api.MethodUpdateProfile, (*GRPCServer).UpdateProfile),
		unary(api.MethodRequestPictureUpload, (*GRPCServer).RequestPictureUpload),
		unary(api.MethodPictureURL, (*GRPCServer).PictureURL),
		unary(api.MethodPostQuest, (*GRPCServer).PostQuest),
		unary(api.MethodGetQuest, (*GRPCServer).GetQuest),
		unary(api.MethodListQuests, (*GRPCServer).ListQuests),
		unary(api.MethodListMyQuests, (*GRPCServer).ListMyQuests),
		unary(api.MethodUpdateQuest, (*GRPCServer).UpdateQuest),
		unary(api.MethodDeleteQuest, (*GRPCServer).DeleteQuest),
		unary(api.MethodExpressInterest, (*GRPCServer).ExpressInterest),
		unary(api.MethodListNotifications, (*GRPCServer).ListNotifications),
		unary(api.MethodAcceptInterest, (*GRPCServer).AcceptInterest),
		unary(api.MethodDeclineInterest, (*GRPCServer).DeclineInterest),
		unary(api.MethodInbox, (*GRPCServer).Inbox),
		unary(api.MethodConversation, (*GRPCServer).Conversation),
		unary(api.MethodSendMessage, (*GRPCServer).SendMessage),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    api.MethodWatch,
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(*GRPCServer).Watch(stream)
			},
		},
	},
	Metadata: "questboard",
}
