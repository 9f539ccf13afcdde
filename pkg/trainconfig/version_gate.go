package trainconfig

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/compozy/traincfg/pkg/document"
	"github.com/compozy/traincfg/pkg/version"
)

// checkVersion enforces that the engine version lies within the inclusive
// range declared by the document.
func checkVersion(n *normalization, v any) (any, error) {
	bounds, ok := document.AsMap(v)
	if !ok {
		return nil, invalidValue("version", "must be a mapping with 'minimum' and 'maximum' fields", nil)
	}
	minimum, err := versionBound(bounds, "minimum")
	if err != nil {
		return nil, err
	}
	maximum, err := versionBound(bounds, "maximum")
	if err != nil {
		return nil, err
	}

	var inRange bool
	switch n.opts.versionCheck {
	case VersionCheckSemver:
		inRange, err = version.CheckSemver(n.engineVersion, minimum, maximum)
	default:
		inRange, err = version.InRange(n.engineVersion, minimum, maximum)
	}
	if err != nil {
		return nil, invalidValue("version", "cannot compare versions", err)
	}
	if !inRange {
		return nil, &FieldError{
			Field:  "version",
			Reason: fmt.Sprintf("engine version %s is outside the supported range [%s, %s]", n.engineVersion, minimum, maximum),
			Kind:   ErrIncompatibleVersion,
		}
	}
	return bounds, nil
}

func versionBound(bounds *document.Map, key string) (string, error) {
	field := "version." + key
	raw := document.Value(bounds, key)
	if raw == nil {
		return "", missingField(field, "must be defined")
	}
	s, err := cast.ToStringE(raw)
	if err != nil || s == "" {
		return "", invalidValue(field, "must be a version string", err)
	}
	return s, nil
}
