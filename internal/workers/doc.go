/*
Package workers sizes and runs small goroutine pools.

Count and its helpers derive a pool size from GOMAXPROCS with a
per-workload multiplier:

	n := workers.ForMixed(8) // thumbnail generation: decode, resize, write

THUMBNAIL_WORKERS overrides the calculation, which is useful on machines
where the photo library lives on a slow network share.

Run fans a slice of jobs out to n goroutines and waits for them:

	workers.Run(ctx, n, paths, func(ctx context.Context, p string) {
	    generate(ctx, p)
	})

The single image worker in the loader package does not use this pool; it
owns exactly one goroutine.
*/
package workers
