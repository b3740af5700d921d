package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	grpcserver "github.com/and161185/goph-auth/internal/server/grpc"
)

// ---- session store ----

type sessionFile struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "authctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "authctl")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(t *grpcserver.Tokens) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sessionFile{
		AccessToken:      t.Access,
		RefreshToken:     t.Refresh,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

func loadSession() (sessionFile, error) {
	var sf sessionFile
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		return sf, err
	}
	err = json.Unmarshal(b, &sf)
	return sf, err
}

// accessToken returns a stored, unexpired access token.
func accessToken() (string, error) {
	sf, err := loadSession()
	if err != nil {
		return "", errors.New("no session (login required)")
	}
	if sf.AccessToken == "" || time.Now().After(sf.AccessExpiresAt) {
		return "", errors.New("access token expired (run refresh or login)")
	}
	return sf.AccessToken, nil
}

func clearSession() error {
	err := os.Remove(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

type transport struct {
	caPath     string
	skipVerify bool
	plaintext  bool
}

func (t transport) credentials() (credentials.TransportCredentials, error) {
	if t.plaintext {
		return insecure.NewCredentials(), nil
	}
	if t.skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if t.caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(t.caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// dialer opens a connection, attaching the bearer token when non-empty.
type dialer func(ctx context.Context, bearer string) (*grpc.ClientConn, error)

func dialTo(addr string, t transport) dialer {
	return func(ctx context.Context, bearer string) (*grpc.ClientConn, error) {
		creds, err := t.credentials()
		if err != nil {
			return nil, err
		}
		opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
		if bearer != "" {
			opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !t.plaintext}))
		}
		//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
		return grpc.DialContext(ctx, addr, opts...)
	}
}
