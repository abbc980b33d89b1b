// Package deps checks the external tools and directories a run depends on.
package deps
