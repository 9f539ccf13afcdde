// Package trainconfig validates and normalizes the configuration document
// that drives a training run.
//
// Normalize applies an ordered table of field rules (see Rules) to a parsed
// document: required fields are enforced, values are coerced to their
// canonical types, optional fields receive defaults, legacy aliases are
// resolved and cross-field invariants are checked. The first violation aborts
// the whole operation with a *FieldError; no partial result is returned.
package trainconfig

import (
	"context"

	"github.com/compozy/traincfg/pkg/document"
	"github.com/compozy/traincfg/pkg/logger"
)

// VersionCheck selects how the engine version is compared with the range a
// document declares.
type VersionCheck string

const (
	// VersionCheckLegacy compares concatenated integer keys.
	VersionCheckLegacy VersionCheck = "legacy"
	// VersionCheckSemver compares semantic versions component by component.
	VersionCheckSemver VersionCheck = "semver"
)

type options struct {
	onNotice     NoticeHandler
	versionCheck VersionCheck
}

// Option configures a Normalize call.
type Option func(*options)

// WithNoticeHandler registers a callback for default substitutions,
// deprecations and skipped entries.
func WithNoticeHandler(h NoticeHandler) Option {
	return func(o *options) {
		o.onNotice = h
	}
}

// WithVersionCheck selects the version comparison. The default is
// VersionCheckLegacy.
func WithVersionCheck(check VersionCheck) Option {
	return func(o *options) {
		if check != "" {
			o.versionCheck = check
		}
	}
}

type normalization struct {
	cfg           *document.Map
	engineVersion string
	opts          options
	log           logger.Logger
}

// Normalize validates raw against the rule table and returns a fully
// populated copy. raw is never modified.
func Normalize(ctx context.Context, raw *document.Map, engineVersion string, opts ...Option) (*document.Map, error) {
	n := &normalization{
		cfg:           document.CloneMap(raw),
		engineVersion: engineVersion,
		opts:          options{versionCheck: VersionCheckLegacy},
		log:           logger.FromContext(ctx).With("component", "trainconfig"),
	}
	for _, opt := range opts {
		opt(&n.opts)
	}
	for _, rule := range rules {
		if err := n.apply(rule); err != nil {
			return nil, err
		}
	}
	return n.cfg, nil
}
