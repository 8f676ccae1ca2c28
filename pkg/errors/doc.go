/*
The errors package provides the error taxonomy shared by the request engine and its CLI.

There are three kinds of failure a caller can observe

  - ErrInvalidArgument for malformed configuration, returned directly by the constructor or setter
  - ErrInvalidState (wrapped in a *StateError) when an operation is used outside its lifecycle window,
    e.g. adding a header after Start() or reading the body before the request completed
  - *TransferError for transport failures, only ever observed after the request reached a terminal state

Cancellation is not an error.

Usage

	import errors2 "github.com/assetnote/kitefetch/pkg/errors"

	...

	if err := fetch.Batch(ctx, input, opts...); err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, v := range merr.Errors {
				errors2.PrintError(v, 0)
			}
		}
	}
*/
package errors
