// Package console provides the interactive command line for driving lights
// through the device registry.
//
// Lines are parsed by Parse into a Command and run by Console.Execute:
//
//	list
//	show porch
//	on porch brightness=128 color=255,120,0 transition=2 flash=short
//	off porch transition=1
//
// Run drives a readline prompt (see NewReadline) until quit or end of input.
package console
