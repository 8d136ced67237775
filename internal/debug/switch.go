//go:build !nodebug

package debug

const enabled = true
