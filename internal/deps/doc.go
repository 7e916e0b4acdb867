// Package deps checks for the external binaries a sync run invokes.
package deps
