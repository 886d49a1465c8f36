// Package main provides the entry point for the NothingHide CLI.
//
// NothingHide is a breach and exposure intelligence tool. It checks email
// addresses against multiple public breach data sources, correlates the
// findings into a deduplicated breach list with a risk score, and checks
// passwords against known breach corpora without ever transmitting them.
//
// Usage:
//
//	nothinghide check <email>
//	nothinghide password
//	nothinghide scan <email>
//
// See --help for all available options.
package main

// main is the entry point for NothingHide.
func main() {
	Execute()
}
