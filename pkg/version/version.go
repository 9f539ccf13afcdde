package version

import "fmt"

// Set at build time:
//
//	-ldflags "-X github.com/compozy/traincfg/pkg/version.Version=0.0.9 \
//	          -X github.com/compozy/traincfg/pkg/version.CommitHash=$(git rev-parse --short HEAD)"
var (
	// Version is the engine version checked against the version range of every
	// training configuration. A fourth dotted component is a build qualifier.
	Version    = "0.0.8.dev0"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

func (i Info) String() string {
	return fmt.Sprintf("traincfg %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildDate)
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
}

// GetVersion returns the engine version used when no other is configured.
func GetVersion() string {
	return Version
}
