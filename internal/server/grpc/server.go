// Package grpcserver exposes the session service over gRPC.
package grpcserver

import (
	"context"
	"net"

	"github.com/and161185/goph-auth/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

// Server adapts service.SessionService to SessionServer.
type Server struct {
	svc service.SessionService
}

var _ SessionServer = (*Server)(nil)

// New constructs a Server over svc.
func New(svc service.SessionService) *Server {
	return &Server{svc: svc}
}

// NewGRPCServer builds a grpc.Server with the interceptor chain and the
// session service registered. Extra options (credentials, limits) are appended.
func NewGRPCServer(svc service.SessionService, log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		MetricsUnary(),
		LoggingUnary(log),
		AuthUnary(svc, Guarded),
	))
	s := grpc.NewServer(opts...)
	RegisterSessionServer(s, New(svc))
	serverMetrics.InitializeMetrics(s)
	return s
}

func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Register creates an account and returns it with a token pair.
func (s *Server) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	sess, err := s.svc.Register(ctx, service.RegisterInput{
		Identity:        req.Email,
		Name:            req.Name,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Contact:         req.Mobile,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &AuthResponse{
		Message: "User registered successfully",
		User:    toUser(&sess.Account),
		Tokens:  toTokens(sess.Tokens),
	}, nil
}

// Login authenticates with email and password.
func (s *Server) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	sess, err := s.svc.Authenticate(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &AuthResponse{
		Message: "Login successful",
		User:    toUser(&sess.Account),
		Tokens:  toTokens(sess.Tokens),
	}, nil
}

// Refresh redeems a refresh token.
func (s *Server) Refresh(ctx context.Context, req *RefreshRequest) (*TokensResponse, error) {
	pair, err := s.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TokensResponse{Tokens: toTokens(pair)}, nil
}

// Logout revokes the refresh token, if any. It always succeeds.
func (s *Server) Logout(ctx context.Context, req *RefreshRequest) (*MessageResponse, error) {
	s.svc.Logout(ctx, req.RefreshToken)
	return &MessageResponse{Message: "Logout successful"}, nil
}

func (s *Server) GetProfile(ctx context.Context, _ *GetProfileRequest) (*ProfileResponse, error) {
	acc, ok := AccountFromCtx(ctx)
	if !ok {
		return nil, unauthenticated()
	}
	return &ProfileResponse{User: toUser(acc)}, nil
}

func (s *Server) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	acc, ok := AccountFromCtx(ctx)
	if !ok {
		return nil, unauthenticated()
	}
	upd, err := s.svc.UpdateProfile(ctx, acc.Identity, service.ProfilePatch{Name: req.Name, Contact: req.Mobile})
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProfileResponse{Message: "Profile updated successfully", User: toUser(upd)}, nil
}

func (s *Server) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	acc, ok := AccountFromCtx(ctx)
	if !ok {
		return nil, unauthenticated()
	}
	pair, err := s.svc.ChangeCredential(ctx, acc.Identity, req.CurrentPassword, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ChangePasswordResponse{Message: "Password changed successfully", Tokens: toTokens(pair)}, nil
}

func (s *Server) DeleteAccount(ctx context.Context, req *DeleteAccountRequest) (*MessageResponse, error) {
	acc, ok := AccountFromCtx(ctx)
	if !ok {
		return nil, unauthenticated()
	}
	if err := s.svc.DeleteAccount(ctx, acc.Identity, req.Password, req.Confirmation); err != nil {
		return nil, toStatus(err)
	}
	return &MessageResponse{Message: "Account deleted successfully"}, nil
}
