// Package utils holds small file and path helpers used by the config loader.
package utils
