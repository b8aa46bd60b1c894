package grpc

import (
	"errors"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps registry and FHE errors to gRPC codes. Unknown errors are
// reported as Internal without their text.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrProofInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrMessageNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrNotAuthorized), errors.Is(err, common.ErrAccessDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
