package model

import (
	"regexp"
	"strings"

	serrors "github-sentinel/internal/errors"
)

var (
	repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+/[A-Za-z0-9._-]+$`)
	// https://host/owner/repo[.git][/], http://..., git@host:owner/repo[.git]
	repoURLPattern = regexp.MustCompile(`^(?:https?://[^/]+/|git@[^:/]+:)([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// ValidateRepoName reports whether name is a well-formed "owner/repo" string.
func ValidateRepoName(name string) bool {
	return repoNamePattern.MatchString(name)
}

// ParseRepoName extracts "owner/repo" from a repository URL, an SSH remote or a bare name.
func ParseRepoName(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if m := repoURLPattern.FindStringSubmatch(raw); m != nil {
		raw = m[1] + "/" + m[2]
	}
	if !ValidateRepoName(raw) {
		return "", &serrors.ValidationError{Field: "repository", Value: raw, Msg: "expected 'owner/repo'"}
	}
	return raw, nil
}

// SplitRepoName returns the owner and name parts of a validated full name.
func SplitRepoName(fullName string) (owner, name string, err error) {
	if !ValidateRepoName(fullName) {
		return "", "", &serrors.ValidationError{Field: "repository", Value: fullName, Msg: "expected 'owner/repo'"}
	}
	owner, name, _ = strings.Cut(fullName, "/")
	return owner, name, nil
}
