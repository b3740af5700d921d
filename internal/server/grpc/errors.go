package grpcserver

import (
	"errors"

	"github.com/and161185/goph-auth/internal/errs"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "auth.v1"

// toStatus maps a service error onto a gRPC status carrying an ErrorInfo with
// the stable kind and, for validation failures, per-field violations.
func toStatus(err error) error {
	kind := errs.Kind(err)
	code, msg := codes.Internal, "internal error"
	switch kind {
	case errs.KindValidation:
		code, msg = codes.InvalidArgument, "validation failed"
	case errs.KindAlreadyExists:
		code, msg = codes.AlreadyExists, "user with this email already exists"
	case errs.KindInvalidCredentials:
		code, msg = codes.InvalidArgument, "invalid credentials"
	case errs.KindInvalidToken:
		code, msg = codes.InvalidArgument, "invalid token"
	case errs.KindRevoked:
		code, msg = codes.InvalidArgument, "token has been revoked"
	case errs.KindUnauthenticated:
		code, msg = codes.Unauthenticated, "authentication credentials were not provided or are invalid"
	case errs.KindRateLimited:
		code, msg = codes.ResourceExhausted, "too many failed attempts"
	}

	st := status.New(code, msg)
	info := &errdetails.ErrorInfo{Reason: kind, Domain: errorDomain}

	var (
		withDetails *status.Status
		derr        error
	)
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		br := &errdetails.BadRequest{}
		for _, f := range ve.SortedFields() {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       f,
				Description: ve.Fields[f],
			})
		}
		withDetails, derr = st.WithDetails(info, br)
	} else {
		withDetails, derr = st.WithDetails(info)
	}
	if derr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// unauthenticated is the status returned for any guard failure.
func unauthenticated() error {
	return toStatus(errs.ErrUnauthenticated)
}
