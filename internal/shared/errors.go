package shared

import "errors"

var (

	// transport-specific errors
	ErrorAuthRefreshExhausted = errors.New("authorization refresh attempts exhausted")
	ErrorClientRequest        = errors.New("client request rejected")
	ErrorNotFound             = errors.New("resource not found")

	// pipeline-specific errors
	ErrorProcessingFailed  = errors.New("remote processing failed")
	ErrorProcessingTimeout = errors.New("remote processing timed out")

	// cache-specific errors
	ErrorCacheVersion = errors.New("cache version mismatch")

	// mirror-specific errors
	ErrorFolderNotFound = errors.New("remote folder not found")
)
