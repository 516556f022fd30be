//go:build unix

package native

import "golang.org/x/sys/unix"

// dirWritable reports whether the process can create entries in dir, using
// the effective UID/GID. This is the non-prompting permission probe: it must
// not create, modify, or touch anything.
func dirWritable(dir string) bool {
	return unix.Access(dir, unix.W_OK|unix.X_OK) == nil
}
