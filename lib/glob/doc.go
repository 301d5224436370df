// Package glob implements the two-wildcard pattern language used by backend
// key scans. "*" matches zero or more characters, "?" exactly one, and a
// backslash escapes a literal "*", "?" or "\". Patterns are compiled once
// into an anchored matcher; callers that embed literal key fragments into a
// pattern must quote them with Escape.
package glob
