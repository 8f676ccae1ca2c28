/*
Package testServer provides a fasthttp server with endpoints that exercise the interesting paths of kitefetch:
slow and hanging responses, redirect chains with cookies, compressed bodies and large streamed bodies.

The server is used for manual testing, and should not be used in a production environment.

Usage

	go run ./cmd/testServer -p 14000-14001
	kitefetch fetch http://localhost:14000/redirect/3
	kitefetch fetch http://localhost:14000/hang -t 2s
*/
package main
