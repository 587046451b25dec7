//go:build !dev

package api

func registerDebugRoutes(*RouteTable) error { return nil }
