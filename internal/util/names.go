package util

import (
	"errors"
	"unicode/utf8"
)

// ErrInvalidEncoding reports a name that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

// DecodeName copies raw name bytes out of a header window into a string.
// RAR5 names are stored as UTF-8 without a terminator; anything else is rejected
// rather than replaced.
func DecodeName(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrInvalidEncoding
	}
	return string(raw), nil
}

// EncodeName returns the on-wire bytes of name.
func EncodeName(name string) ([]byte, error) {
	if !utf8.ValidString(name) {
		return nil, ErrInvalidEncoding
	}
	return []byte(name), nil
}
