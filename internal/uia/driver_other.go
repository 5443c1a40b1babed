//go:build !windows

package uia

// NativeDesktop is only available on Windows, where the target application
// runs. Other platforms get ErrUnsupported; tests use the uiatest fake.
func NativeDesktop() (Desktop, error) {
	return nil, ErrUnsupported
}
