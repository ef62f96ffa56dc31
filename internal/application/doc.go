// Package application builds the configuration source chain from command-line
// options, resolves the demo record once, and prints it. Construction is explicit:
// main hands over the parsed options and a logger, nothing is discovered implicitly.
package application
