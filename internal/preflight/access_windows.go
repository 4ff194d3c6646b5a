//go:build windows

package preflight

import "os"

func checkAccess(path string, access Access) error {
	if access != ReadWrite {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		return f.Close()
	}
	f, err := os.CreateTemp(path, ".vpkplaces-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
