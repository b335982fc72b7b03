package fontctx

// PlatformBackend returns the backend compiled in for this target:
// "fontconfig" on Linux and FreeBSD, "directwrite" on Windows, "coretext"
// on macOS, and "fontscan" elsewhere.
func PlatformBackend() Backend {
	cfg := defaultConfig()
	return platformBackend(&cfg)
}

// PlatformName returns the name of PlatformBackend.
func PlatformName() string {
	return platformName
}
