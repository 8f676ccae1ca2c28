/*
Package scheduler provides the host loop that requests report their progress and completion on.

A request registers itself with Schedule when it starts and the scheduler calls back on every Tick
until the request unschedules itself. All callbacks run on the goroutine driving the scheduler, usually
through RunUntilIdle, so listeners never need to worry about being called from a transfer goroutine.
*/
package scheduler
