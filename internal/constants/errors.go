package constants

import "errors"

// Configuration file errors.
var (
	ErrNoConfigFile       = errors.New("no configuration file found, use 'autotask login' to create one")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrSecretNotPrompted  = errors.New("secret was not provided and stdin is not a terminal")
	ErrNotRegularFile     = errors.New("path is not a regular file")
	ErrInvalidFilterSpec  = errors.New("invalid filter, expected field:op:value")
	ErrInvalidEntityID    = errors.New("entity id must be a positive integer")
	ErrUnsupportedFormat  = errors.New("unsupported output format")
	ErrInvalidPatchField  = errors.New("invalid patch field, expected name=value")
	ErrUnknownQuotaStore  = errors.New("unknown quota store type")
	ErrQuotaStoreRequired = errors.New("quota store DSN is required")
)
