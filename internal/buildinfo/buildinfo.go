// Package buildinfo holds build-time metadata injected via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/tcas-genius/tcas-genius-go/internal/buildinfo.Version=v1.2.0"
package buildinfo

var (
	// Version is the semantic version or tag for this build.
	Version = ""
	// Commit is the git commit SHA for this build.
	Commit = ""
	// BuildDate is the RFC3339 build timestamp.
	BuildDate = ""
)

// Release names this build for error reports: the version tag, else the
// short commit, else "dev".
func Release() string {
	switch {
	case Version != "":
		return Version
	case len(Commit) > 7:
		return Commit[:7]
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}
