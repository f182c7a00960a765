// Package model defines the place records returned by location searches,
// and the merge and ordering rules applied to them.
package model
