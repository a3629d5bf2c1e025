// Package layout assigns 2D coordinates to flow graph nodes with a layered
// algorithm followed by a bounded overlap-resolution pass.
package layout
