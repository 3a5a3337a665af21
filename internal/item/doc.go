// Package item defines the photograph record shared by the viewer and the
// background image worker, and the arena that owns every record.
//
// Code outside the arena holds only an ID. The arena itself is not
// synchronised; its owner (the loader) guards every access with one mutex.
package item
