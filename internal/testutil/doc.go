// Package testutil holds reproducible signals and numeric assertions shared
// by the package tests.
package testutil
