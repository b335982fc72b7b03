//go:build darwin

package fontctx

// platformName names the macOS backend. It holds no resource yet: until a
// font manager is bound here, handles opened on macOS are the default
// handle and report no memory.
const platformName = "coretext"

func platformBackend(*config) Backend {
	return BackendFunc(platformName, func() (Resource, error) {
		return stateless{}, nil
	})
}
