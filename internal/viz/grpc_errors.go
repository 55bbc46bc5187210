package viz

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/kb"
)

// ErrInvalidArgument marks malformed requests.
var ErrInvalidArgument = errors.New("invalid argument")

// ToStatusError maps visualizer errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		dataErr    *core.DataLoadError
		missingErr *core.MissingColumnError
		paletteErr *core.UnknownPaletteError
	)
	switch {
	case errors.As(err, &paletteErr),
		errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.As(err, &missingErr),
		errors.Is(err, snapshot.ErrSnapshotNotFound),
		errors.Is(err, kb.ErrNodeNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.As(err, &dataErr),
		errors.Is(err, snapshot.ErrNoLoader):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
