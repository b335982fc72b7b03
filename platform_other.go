//go:build !darwin && !windows && !(((linux && !android) || freebsd) && (amd64 || arm64))

package fontctx

// Targets without a native binding scan font directories directly.
const platformName = scanName

func platformBackend(cfg *config) Backend {
	return ScanBackend(cfg.scanCacheDir())
}
