//go:build !unix

package logbridge

func runSignalChild(string) int {
	return 2
}
