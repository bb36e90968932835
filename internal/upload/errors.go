package upload

import "errors"

var (
	// ErrFileTooLarge indicates the selected file exceeds the upload ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrUnsupportedType indicates the declared media type is not an allowed video format.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrMissingTitle indicates the required title was empty after trimming.
	ErrMissingTitle = errors.New("title is required")
	// ErrTitleTooLong indicates the title exceeds the catalog limit.
	ErrTitleTooLong = errors.New("title exceeds maximum length")
	// ErrDescriptionTooLong indicates the description exceeds the catalog limit.
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
)
