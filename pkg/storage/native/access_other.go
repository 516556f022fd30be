//go:build !unix

package native

import "os"

// dirWritable approximates the writability probe on platforms without
// access(2). Existence is the best side-effect-free signal available; actual
// denials surface at write time.
func dirWritable(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
