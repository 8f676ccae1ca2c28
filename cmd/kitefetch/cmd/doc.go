/*
Package cmd provides all the commands for the kitefetch binary.

The commands are separated by file. fetch and batch share the transfer flags defined in transfer.go

there are a few global CLI flags that can be used to configure how kitefetch will operate. These are defined
by the globally exposed variables. Transfer defaults can also be set in the config file

	http:
	  timeout: 10s
	  connect_timeout: 2s
	  max_redirects: 5
	  user_agent: my-agent
*/
package cmd
