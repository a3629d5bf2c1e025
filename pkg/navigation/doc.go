// Package navigation decides where a survey goes after a block.
//
// Resolve walks a block's ordered rule list and returns the first destination
// whose condition holds. NextSequential is the structural fallback used when no
// rule matches: the next visible block of the page, then the first visible block
// of a later page, then submit.
package navigation
