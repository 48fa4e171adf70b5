// Command specadjust clears the hash of writable memory regions in a
// component XML spec so the loader does not validate their contents.
//
// Usage:
//
//	specadjust <XML spec> <Output file>
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
