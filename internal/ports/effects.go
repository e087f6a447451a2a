package ports

import "context"

// Effects are the side effects the requirement installer performs. They
// cross the process boundary, so the installer only reaches them through
// this interface.
type Effects interface {
	// RunCommand runs an install or service-start command with PATH set to
	// searchPath and reports whether it exited successfully.
	RunCommand(ctx context.Context, command string, searchPath []string) bool
	// NetworkAvailable reports whether the internet appears reachable.
	NetworkAvailable(ctx context.Context) bool
	// PrependPath puts dir at the front of the run's effective search path.
	PrependPath(dir string)
}
