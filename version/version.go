package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = SemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// SemVer is the current version of the application.
	// Must be a string because scripts read this file.
	SemVer = "0.1.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64,
// eg. for compatibility with ABCI types.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

// AppProtocol versions the state transition rules: transaction encoding,
// predicate programs and ledger layout. It is reported in ResponseInfo.
var AppProtocol Protocol = 1

// App includes the protocol and software version for the application.
type App struct {
	Protocol Protocol `json:"protocol"`
	Software string   `json:"software"`
}

// Current returns the version of the running application.
func Current() App {
	return App{Protocol: AppProtocol, Software: Version}
}
