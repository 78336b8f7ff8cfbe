// Package coordinator runs the registry sync on a schedule.
//
// Start performs an initial sync immediately, then repeats it on a ticker
// whose period is the configured sync interval with a small random jitter, so
// that replicas started together do not hit the same upstream at once. The
// outcome of every run is recorded in a status.Tracker that the HTTP layer
// reads.
//
//	coord := coordinator.New(manager, cfg.GetSyncInterval(),
//	    coordinator.WithSyncMetrics(syncMetrics))
//	go func() { _ = coord.Start(ctx) }()
//	defer coord.Stop()
package coordinator
