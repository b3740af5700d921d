package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "auth.v1.SessionService"

// SessionServer is the server API for auth.v1.SessionService.
type SessionServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokensResponse, error)
	Logout(context.Context, *RefreshRequest) (*MessageResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*ChangePasswordResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*MessageResponse, error)
}

// Guarded lists full method names that require a bearer access token.
var Guarded = map[string]bool{
	fullMethod("GetProfile"):     true,
	fullMethod("UpdateProfile"):  true,
	fullMethod("ChangePassword"): true,
	fullMethod("DeleteAccount"):  true,
}

// SessionServiceDesc describes auth.v1.SessionService for grpc.Server.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", SessionServer.Register),
		unary("Login", SessionServer.Login),
		unary("Refresh", SessionServer.Refresh),
		unary("Logout", SessionServer.Logout),
		unary("GetProfile", SessionServer.GetProfile),
		unary("UpdateProfile", SessionServer.UpdateProfile),
		unary("ChangePassword", SessionServer.ChangePassword),
		unary("DeleteAccount", SessionServer.DeleteAccount),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterSessionServer registers srv on s.
func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(SessionServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SessionServer)
			if ic == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return ic(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}
