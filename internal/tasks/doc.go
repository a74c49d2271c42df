// Package tasks runs batched catalog work with real-time progress reporting.
//
// # Hydration
//
// Personal and mood recommendations arrive as bare titles. [Hydrate] turns them into
// [models.MovieDetail] values with a bounded worker pool:
//
//   - titles are fed to workers through a jobs channel, paced by a [rate.Limiter]
//   - each worker calls [TitleFetcher.LookupTitle] once per title
//   - a failed title is excluded and reported; it never fails the batch
//   - results are joined and returned in input order
//
// # Progress Reporting
//
// [ProgressUpdate] values are sent on an optional channel. Updates use select with default
// so a slow consumer never blocks the pool.
package tasks
