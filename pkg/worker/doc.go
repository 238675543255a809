// Package worker converts many resource files in parallel.
//
// Conversions share no mutable state, so each worker runs its jobs
// independently. Example usage:
//
//	pool := worker.NewPool(ctx, conv.Convert, 4)
//	go func() {
//	    for _, f := range files {
//	        pool.Submit(worker.Job{ID: f.Name, Data: f.Data})
//	    }
//	    pool.Close()
//	}()
//	for res := range pool.Results() {
//	    if res.Error != nil {
//	        // Handle error
//	    }
//	    // Write res.Output
//	}
//
// Batch does the same and returns the results in submission order.
package worker
