// Package event defines the immutable trigger context a pipeline run is
// evaluated against: what happened (push, tag, ...), on which ref, in which
// repository. Events are constructed once by the host surface (webhook
// handler, CLI, cron scheduler) and never mutated afterwards.
package event

import "strings"

// Kind identifies what triggered a pipeline run.
type Kind string

const (
	KindPush        Kind = "push"
	KindTag         Kind = "tag"
	KindPullRequest Kind = "pull_request"
	KindCron        Kind = "cron"
	KindCustom      Kind = "custom"
)

// Event is the context a run is evaluated against. Immutable per run.
type Event struct {
	Kind   Kind
	Repo   string // owner/name slug
	Branch string
	Tag    string // set only for tag events
	Ref    string // full git ref, e.g. refs/heads/master
}

// Normalize fills Ref from Branch/Tag or vice versa so predicates can match
// either form regardless of which one the host supplied.
func (e Event) Normalize() Event {
	if e.Ref == "" {
		switch {
		case e.Tag != "":
			e.Ref = "refs/tags/" + e.Tag
		case e.Branch != "":
			e.Ref = "refs/heads/" + e.Branch
		}
	} else {
		switch {
		case strings.HasPrefix(e.Ref, "refs/tags/"):
			if e.Tag == "" {
				e.Tag = strings.TrimPrefix(e.Ref, "refs/tags/")
			}
		case strings.HasPrefix(e.Ref, "refs/heads/"):
			if e.Branch == "" {
				e.Branch = strings.TrimPrefix(e.Ref, "refs/heads/")
			}
		}
	}
	if e.Kind == "" {
		if e.Tag != "" {
			e.Kind = KindTag
		} else {
			e.Kind = KindPush
		}
	}
	return e
}

// ValidKind reports whether k is one of the recognized event kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindPush, KindTag, KindPullRequest, KindCron, KindCustom:
		return true
	}
	return false
}
