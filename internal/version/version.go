package version

import "runtime/debug"

// AppName is printed in logs and the version command.
const AppName = "slashygen"

// Version is set at link time with -ldflags "-X github.com/keshon/slashy/internal/version.Version=v1.2.3".
var Version = ""

// String returns Version, falling back to the module version recorded in
// the binary and then to "devel".
func String() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "devel"
}
