package streaming

import "github.com/BaSui01/shapeflow/types"

// Sentinel errors for errors.Is. Errors returned by the validator carry the
// same codes plus the path of the failing node.
var (
	ErrExpectedClass = types.NewError(types.ErrExpectedClass,
		"expected to encounter a class")
	ErrIncompleteDoneValue = types.NewError(types.ErrIncompleteDoneValue,
		"value was marked done, but was incomplete in the stream").WithRetryable(true)
	ErrMissingNeededFields = types.NewError(types.ErrMissingNeededFields,
		"class instance did not contain fields marked as needed")
	ErrDistributeTypeFailure = types.NewError(types.ErrDistributeTypeFailure,
		"failed to distribute type with metadata")
	ErrMaxDepthExceeded = types.NewError(types.ErrMaxDepthExceeded,
		"value nesting exceeds the configured maximum depth")
)

func newError(sentinel *types.Error, path string) *types.Error {
	return &types.Error{
		Code:      sentinel.Code,
		Message:   sentinel.Message,
		Retryable: sentinel.Retryable,
		Path:      rootPath(path),
	}
}

func rootPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return "<root>" + path
}
