/*
Package filesystem provides resilient filesystem operations with automatic retry
logic for NFS stale file handle errors.

Photo libraries frequently live on network shares. Opening a file on an NFS
mount while the server is re-exporting can fail with ESTALE even though a
second attempt succeeds. The helpers here wrap os.Stat, os.Open, os.ReadDir
and file writes with exponential backoff for that single error; every other
error is returned immediately.

# Usage

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff, 500ms maximum backoff.

# Metrics

Operations report through the Observer set with SetObserver. Labels use the
volume name resolved from the path by the default VolumeResolver, so photos
and cache directories are reported separately.
*/
package filesystem
