// Package crawler discovers platform content and coordinates its download.
//
// The crawler package runs the whole pipeline in two stages. The Discoverer
// walks the subject listing and each subject's chapters and steps to build a
// content tree. The Coordinator then processes every item in the tree over a
// bounded worker pool: fetch, convert, write.
//
// Architecture:
//
// Three components share the work:
//   - Discoverer enumerates subjects, chapters and steps into a ContentTree
//   - Fetcher retrieves the raw content behind each material item
//   - Coordinator drives the worker pool and assembles the RunReport
//
// Usage:
//
//	discoverer := crawler.NewDiscoverer(client, cfg, log)
//	tree, err := discoverer.Discover(ctx, 0)
//	if err != nil {
//	    return err
//	}
//
//	coordinator, err := crawler.NewCoordinator(client, cfg, log)
//	if err != nil {
//	    return err
//	}
//	report, err := coordinator.Run(ctx, tree)
//
// Failure handling:
//
// A subject whose detail cannot be fetched degrades to an entry in the
// report instead of failing the run. Individual items retry transient
// errors with exponential backoff and report terminal failures per item.
// Only invalid credentials, configuration problems and a persistently
// broken output directory abort the run as a whole.
//
// Two-phase downloads:
//
// Lesson pages are processed first. The photos and documents they embed are
// deduplicated and downloaded in a second phase, so the same resource is
// fetched once no matter how many lessons reference it. In JSON mode no
// second phase runs; raw payloads are written as-is.
package crawler
