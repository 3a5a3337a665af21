/*
Package loader runs the single background image worker.

A Loader owns the item arena, one request slot and one goroutine. The UI
thread describes what it wants to see with SetItem and UpdateImageSize; the
worker loads metadata, decodes the image through the Collection, resizes it
for the requested box or zoom, and publishes the result into the item.
Completion is reported by scheduling Handler callbacks on the UI thread's
Scheduler; the worker never calls the Handler itself.

# Locking

One mutex guards the arena and the request slot. It is never held across
metadata loading, decoding, resizing, the sizing hook or a call to the
Scheduler, so a Scheduler may block until the UI thread is free. Read runs its
callback with the mutex held, so callbacks must not block or call back into
the Loader.

# Cancellation

The ID of the current item is kept in an atomic cell. The probe handed to
Collection.LoadImage compares it with the ID the work was started for, so a
superseded decode stops at its next checkpoint. Results for an item that is
no longer current are discarded, and nothing is written after Quit.

# States

	Idle ──request──▶ Loading ──▶ Sizing ──▶ Idle
	  any ──Quit──▶ Exiting
*/
package loader
