/*
Package context provides utilities wrapping the native go/context package
for catching and handling multiple interrupts.

The main use-case is to to attach an interrupt signal handler to the context.
The CLI watches this context from the host loop and cancels any in-flight requests
when it is done, so the transfers unwind and still report their cancelled event

	import "github.com/assetnote/kitefetch/pkg/context"

	...

	if _, err := fetch.Fetch(context.Context(), url, opts...); err != nil {
		log.Fatal().Err(err).Msg("failed to fetch")
	}
*/
package context
