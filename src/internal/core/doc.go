// Package core wires hostgate's components together.
package core
