/*
Package request implements an asynchronous HTTP request driven by a scheduler.

A Request moves through Idle -> InProgress -> {Completed | Cancelled | Failed}. Clear can be called in any state
and moves it to Cleared. Configuration is only accepted while Idle, and the response accessors only work once
the request Completed. Both return a *errors.StateError otherwise. Building with the kitefetch_debug tag turns
those violations into panics.

	r, err := request.New(request.ListenerFunc(func(e request.Event) {
		if e.Name == request.EventCompleted {
			body, _ := e.Request.ResponseString()
			fmt.Println(body)
		}
	}), "https://example.com", http.GET)
	if err != nil {
		return err
	}
	if err := r.Start(); err != nil {
		return err
	}
	scheduler.Shared().RunUntilIdle(ctx, 0)

Start spawns one worker goroutine that performs the transfer through the Transport. The worker writes into a
private result and hands it over on a channel when the transport returns. The scheduler callback picks it up,
adopts it and raises exactly one terminal event. Listeners are only ever called from the goroutine driving
the scheduler.

Cancel is cooperative: the transport notices it at its next progress callback, which happens at least every
http.Config.ProgressInterval. A request that was cancelled always reports cancelled, even if the transfer
managed to finish in the meantime.
*/
package request
