//go:build !windows

package teczone

// The target application only exists on Windows; discovery finds nothing
// elsewhere and Connect surfaces that as NeedsHelp with the tried sources.

func registryLaunchPath() string { return "" }

func findProcessPID(string) (int, bool) { return 0, false }
