package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// SessionClient calls auth.v1.SessionService with the JSON codec.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionClient wraps a client connection.
func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *SessionClient, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Register", in, opts...)
}

func (c *SessionClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Login", in, opts...)
}

func (c *SessionClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokensResponse, error) {
	return invoke[TokensResponse](ctx, c, "Refresh", in, opts...)
}

func (c *SessionClient) Logout(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c, "Logout", in, opts...)
}

func (c *SessionClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, "GetProfile", in, opts...)
}

func (c *SessionClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, "UpdateProfile", in, opts...)
}

func (c *SessionClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*ChangePasswordResponse, error) {
	return invoke[ChangePasswordResponse](ctx, c, "ChangePassword", in, opts...)
}

func (c *SessionClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c, "DeleteAccount", in, opts...)
}
