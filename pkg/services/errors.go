package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidFrontMatter = errors.New("invalid front matter")
	ErrInvalidURL         = errors.New("invalid download url")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrEncoding           = errors.New("field cannot be encoded")
	ErrUnsupportedBlock   = errors.New("unsupported block in section")
)

// ParseError reports a document that was rejected by LoadPage.
type ParseError struct {
	Fields []string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) == 0 {
		return "parse page: " + e.Err.Error()
	}
	return fmt.Sprintf("parse page: %s: %s", e.Err.Error(), strings.Join(e.Fields, ", "))
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError reports a page that cannot be represented in the target format.
type RenderError struct {
	Format string
	Field  string
	Err    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("render %s: %s", e.Format, e.Err.Error())
	}
	return fmt.Sprintf("render %s: %s: %s", e.Format, e.Field, e.Err.Error())
}

func (e *RenderError) Unwrap() error { return e.Err }
