/*
Package http provides the transport used to perform a single request/response exchange.

The Transport interface is deliberately small: Perform blocks for the full exchange and reports
what happened through three callbacks and a final Outcome.

  - OnData receives each decoded body chunk and must consume all of it
  - OnHeader receives every raw header line of every response in the redirect chain
  - OnProgress receives the byte counters and may abort the transfer by returning true

FastTransport implements Transport on top of fasthttp. A few quirks worth knowing about

  - A fresh fasthttp.Client is used for every transfer. Connections are never pooled or reused
  - The progress callback is invoked both from the goroutine calling Perform and from a watcher goroutine,
    so an abort is noticed even while a read is blocked on a silent server
  - Header lines are re-serialized by fasthttp, so header names keep their case but the order of
    repeated headers may differ from what was on the wire
  - Cookies are tracked per transfer only. They are replayed across redirects and reported in the
    Netscape cookie-file format

Error codes follow the libcurl numbering so they can be compared against CURLcode values.
*/
package http
