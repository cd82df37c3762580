//go:build !unix

package ledger

// lockFile is a no-op where flock is unavailable; writes stay atomic but
// concurrent writers are not serialised.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
