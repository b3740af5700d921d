// Command authctl is a CLI client for the authd session service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc/status"

	grpcserver "github.com/and161185/goph-auth/internal/server/grpc"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `authctl CLI
Usage:
  authctl -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  register   -email <email> -name <name> -p <password> [-mobile <phone>]
  login      -email <email> -p <password>          (saves session)
  refresh                                          (rotates saved session)
  logout                                           (revokes and forgets session)
  profile
  update     [-name <name>] [-mobile <phone>]      (empty -mobile clears it)
  passwd     -current <password> -new <password>
  delete     -p <password> -confirm DELETE
`)
}

// main parses global flags and dispatches to run.
func main() {
	addr := flag.String("addr", "localhost:8443", "server addr")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	skipVerify := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "no TLS (dev)")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d := dialTo(*addr, transport{caPath: *caPath, skipVerify: *skipVerify, plaintext: *plaintext})
	if err := run(ctx, d, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fail(err)
	}
}

func fail(err error) {
	if st, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", st.Code(), st.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// client dials and wraps the connection; the caller closes it.
func client(ctx context.Context, d dialer, bearer string) (*grpcserver.SessionClient, func(), error) {
	cc, err := d(ctx, bearer)
	if err != nil {
		return nil, nil, err
	}
	return grpcserver.NewSessionClient(cc), func() { _ = cc.Close() }, nil
}

// run executes one subcommand.
func run(ctx context.Context, d dialer, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(out, "authctl %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		name := fs.String("name", "", "display name")
		p := fs.String("p", "", "password")
		mobile := fs.String("mobile", "", "mobile number")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		req := &grpcserver.RegisterRequest{Email: *email, Name: *name, Password: *p, PasswordConfirm: *p}
		if *mobile != "" {
			req.Mobile = mobile
		}
		cl, done, err := client(ctx, d, "")
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.Register(ctx, req)
		if err != nil {
			return err
		}
		if err := saveSession(resp.Tokens); err != nil {
			return err
		}
		printJSON(out, resp.User)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		p := fs.String("p", "", "password")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if *email == "" || *p == "" {
			return errors.New("need -email and -p")
		}
		cl, done, err := client(ctx, d, "")
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.Login(ctx, &grpcserver.LoginRequest{Email: *email, Password: *p})
		if err != nil {
			return err
		}
		if err := saveSession(resp.Tokens); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "refresh":
		sf, err := loadSession()
		if err != nil {
			return errors.New("no session (login required)")
		}
		cl, done, err := client(ctx, d, "")
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.Refresh(ctx, &grpcserver.RefreshRequest{RefreshToken: sf.RefreshToken})
		if err != nil {
			return err
		}
		if err := saveSession(resp.Tokens); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "logout":
		sf, _ := loadSession()
		cl, done, err := client(ctx, d, "")
		if err != nil {
			return err
		}
		defer done()
		if _, err := cl.Logout(ctx, &grpcserver.RefreshRequest{RefreshToken: sf.RefreshToken}); err != nil {
			return err
		}
		if err := clearSession(); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")
		return nil

	case "profile":
		tok, err := accessToken()
		if err != nil {
			return err
		}
		cl, done, err := client(ctx, d, tok)
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.GetProfile(ctx, &grpcserver.GetProfileRequest{})
		if err != nil {
			return err
		}
		printJSON(out, resp.User)
		return nil

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		name := fs.String("name", "", "display name")
		mobile := fs.String("mobile", "", "mobile number")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		req := &grpcserver.UpdateProfileRequest{}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				req.Name = name
			case "mobile":
				req.Mobile = mobile
			}
		})
		tok, err := accessToken()
		if err != nil {
			return err
		}
		cl, done, err := client(ctx, d, tok)
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.UpdateProfile(ctx, req)
		if err != nil {
			return err
		}
		printJSON(out, resp.User)
		return nil

	case "passwd":
		fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
		cur := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		tok, err := accessToken()
		if err != nil {
			return err
		}
		cl, done, err := client(ctx, d, tok)
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.ChangePassword(ctx, &grpcserver.ChangePasswordRequest{
			CurrentPassword: *cur, NewPassword: *next, ConfirmNewPassword: *next,
		})
		if err != nil {
			return err
		}
		if err := saveSession(resp.Tokens); err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Message)
		return nil

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		p := fs.String("p", "", "password")
		confirm := fs.String("confirm", "", `type "DELETE" to confirm`)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		tok, err := accessToken()
		if err != nil {
			return err
		}
		cl, done, err := client(ctx, d, tok)
		if err != nil {
			return err
		}
		defer done()
		resp, err := cl.DeleteAccount(ctx, &grpcserver.DeleteAccountRequest{Password: *p, Confirmation: *confirm})
		if err != nil {
			return err
		}
		if err := clearSession(); err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Message)
		return nil

	default:
		return errUsage
	}
}
