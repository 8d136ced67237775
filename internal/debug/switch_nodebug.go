//go:build nodebug

package debug

const enabled = false
