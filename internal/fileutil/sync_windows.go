//go:build windows

package fileutil

func syncDir(string) error { return nil }
