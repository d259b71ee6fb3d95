//go:build cgo

package db

const cgoEnabled = true
