package domain

import "errors"

var (
	ErrInvalidInput           = errors.New("neither image nor text supplied, or input is malformed")
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrProviderUnavailable    = errors.New("no extraction provider configured")
	ErrAllProvidersFailed     = errors.New("all extraction providers failed")
	ErrExtractionEmpty        = errors.New("extraction returned no usable fields")
	ErrLeadNotFound           = errors.New("lead not found")
	ErrNoStoredImages         = errors.New("lead has no stored images to rescan")
)
