// Package middleware decorates session stores: answers of sensitive fields can
// be masked and whole states sealed with AES-GCM before they reach the backing
// store.
package middleware
