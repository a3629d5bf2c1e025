// Package file provides filesystem adapters: a directory-backed survey loader
// for JSON and YAML documents and a JSON-per-session store.
package file
