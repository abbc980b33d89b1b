// Package timecode converts between second offsets and human timecodes.
//
// Parse accepts HH:MM:SS, MM:SS, and SS forms with an optional fraction of up
// to three digits; Format renders the inverse with zero-padded fields. All
// helpers are pure and safe for concurrent use.
package timecode
