/*
Package workers sizes and runs bounded background work in containerized
environments.

# Sizing

When running in a container, runtime.NumCPU() reports the host's CPUs while
GOMAXPROCS follows the cgroup limit (Go 1.19+). [Count] scales from GOMAXPROCS:

	// Kubernetes pod limited to 2 CPUs on a 64-core node
	workers.ForCPU(8)     // 2
	workers.ForEncoder(4) // 1: each encoder process is already multi-threaded

# Pool

[Pool] runs each submitted task on its own goroutine while a weighted
semaphore keeps at most Size of them active. Submitting never blocks, so an
HTTP handler can accept a job and return immediately:

	pool := workers.NewPool(workers.ForEncoder(4))
	if err := pool.Go(func(ctx context.Context) { encode(ctx, job) }); err != nil {
		// pool is shutting down
	}

	// on shutdown
	_ = pool.Shutdown(ctx)

Shutdown cancels the context handed to every task and waits for them to
return, so tasks must honour ctx.
*/
package workers
