//go:build windows

package teczone

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// registryLaunchPath reads the App Paths entry the installer writes.
func registryLaunchPath() string {
	keyPath := `SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths\` + processImage
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		k, err := registry.OpenKey(root, keyPath, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		value, _, err := k.GetStringValue("")
		k.Close()
		if err != nil || value == "" {
			continue
		}
		if _, err := os.Stat(value); err == nil {
			return value
		}
	}
	return ""
}

// findProcessPID scans the process table for the given image name.
func findProcessPID(image string) (int, bool) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, false
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return 0, false
	}
	for {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(name, image) {
			return int(entry.ProcessID), true
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			return 0, false
		}
	}
}
