package cli

import "offline-backup/src/check"

// SetConnectHost swaps the host client constructor and returns a restore
// function. Test-only.
func SetConnectHost(fn connectHostFn) func() {
	prev := connectHost
	connectHost = fn
	return func() { connectHost = prev }
}

// SetProber swaps the capability prober constructor and returns a restore
// function. Test-only.
func SetProber(fn func() check.Prober) func() {
	prev := newProber
	newProber = fn
	return func() { newProber = prev }
}
