package securemem

import "sync"

var coreDumpOnce sync.Once
var coreDumpErr error

// DisableCoreDumps sets the process core-dump resource limit to (0, 0).
// Idempotent: subsequent calls return the result of the first attempt
// without touching the resource limit table again. Best-effort on
// platforms that lack the facility; never raises the limit.
func DisableCoreDumps() error {
	coreDumpOnce.Do(func() {
		coreDumpErr = disableCoreDumpsImpl()
	})
	return coreDumpErr
}
