/*
Package kitefetch provides an asynchronous http request engine. Requests are configured and observed from a
single host goroutine driving a scheduler, while every transfer runs on its own background worker.

There are no exports in the root package.

Packages of interest
  - pkg/request - the Request lifecycle, its transfer worker and the completion pump
  - pkg/scheduler - the tick driven scheduler requests report on
  - pkg/http - the fasthttp based transport performing a single exchange

CLI tools part of `cmd/` include:
  - kitefetch - fetch a single url or a batch of urls
  - testServer - a server with slow, hanging, redirecting and compressed endpoints to try kitefetch against
*/
package kitefetch
