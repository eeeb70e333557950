/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolution

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a resolution failure.
type ErrorKind int

const (
	// KindNotFound means the resolver cannot satisfy the specifier. Chains
	// continue to the next resolver.
	KindNotFound ErrorKind = iota + 1
	// KindFatal means the request must fail now.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Error is a classified resolution failure.
type Error struct {
	Kind             ErrorKind
	OriginModulePath string
	ModuleName       string

	// Message describes the failure. It never includes the import stack.
	Message string

	// Candidates lists the paths that were tried, for not-found errors.
	Candidates []FileCandidates

	// ImportStack is the formatted chain of importers leading to the
	// failing origin. It is attached after the fact and leaves Message
	// and Kind untouched.
	ImportStack string

	Err error
}

// NotFound creates a not-found error.
func NotFound(origin, moduleName string, candidates ...FileCandidates) *Error {
	return &Error{
		Kind:             KindNotFound,
		OriginModulePath: origin,
		ModuleName:       moduleName,
		Message:          fmt.Sprintf("%s could not be found within the project or in these directories", moduleName),
		Candidates:       candidates,
	}
}

// Fatal creates a fatal error wrapping err.
func Fatal(origin, moduleName string, err error) *Error {
	return &Error{
		Kind:             KindFatal,
		OriginModulePath: origin,
		ModuleName:       moduleName,
		Message:          err.Error(),
		Err:              err,
	}
}

// Fatalf creates a fatal error with a formatted message.
func Fatalf(origin, moduleName, format string, args ...any) *Error {
	return Fatal(origin, moduleName, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unable to resolve module %s from %s: %s", e.ModuleName, e.OriginModulePath, e.Message)
	if len(e.Candidates) > 0 {
		b.WriteString("\n  None of these files exist:")
		for _, c := range e.Candidates {
			b.WriteString("\n    * ")
			b.WriteString(c.String())
		}
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var resErr *Error
	if errors.As(err, &resErr) {
		return resErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found resolution error.
func IsNotFound(err error) bool {
	resErr, ok := AsError(err)
	return ok && resErr.Kind == KindNotFound
}

// IsFatal reports whether err is an error that must abort resolution. Any
// error that is not a classified not-found is fatal.
func IsFatal(err error) bool {
	return err != nil && !IsNotFound(err)
}

// FileCandidates describes the files tried for one path prefix.
type FileCandidates struct {
	// FilePathPrefix is the path without extension.
	FilePathPrefix string

	// CandidateExts are the dotted extensions tried, in order. An empty
	// string means the prefix itself was tried.
	CandidateExts []string
}

// String renders the candidates compactly, grouping extensions by their
// final suffix when they form a full cross product:
//
//	/app/Foo(.ios|.native|)(.js|.ts)
func (c FileCandidates) String() string {
	if len(c.CandidateExts) == 0 {
		return c.FilePathPrefix
	}
	if grouped, ok := groupExts(c.CandidateExts); ok {
		return c.FilePathPrefix + grouped
	}
	return c.FilePathPrefix + "(" + strings.Join(c.CandidateExts, "|") + ")"
}

func groupExts(exts []string) (string, bool) {
	var modifiers, suffixes []string
	seenMod := map[string]bool{}
	seenSuffix := map[string]bool{}
	present := map[[2]string]bool{}

	for _, ext := range exts {
		i := strings.LastIndex(ext, ".")
		if i < 0 {
			return "", false
		}
		mod, suffix := ext[:i], ext[i:]
		if !seenMod[mod] {
			seenMod[mod] = true
			modifiers = append(modifiers, mod)
		}
		if !seenSuffix[suffix] {
			seenSuffix[suffix] = true
			suffixes = append(suffixes, suffix)
		}
		present[[2]string{mod, suffix}] = true
	}

	if len(modifiers) < 2 && len(suffixes) < 2 {
		return "", false
	}
	if len(modifiers)*len(suffixes) != len(present) || len(present) != len(exts) {
		return "", false
	}
	if len(modifiers) == 1 {
		return modifiers[0] + "(" + strings.Join(suffixes, "|") + ")", true
	}
	return "(" + strings.Join(modifiers, "|") + ")(" + strings.Join(suffixes, "|") + ")", true
}
