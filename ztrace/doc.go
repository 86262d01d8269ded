// Package ztrace implements a generic diagnostic fabric: callers
// register interest in a bounded window of typed events (a "ztrace"
// instance), and producers feed it events without knowing whether
// anyone is listening. An instance completes either when its Config
// decides it has captured enough, or when its deadline passes first,
// whichever happens first.
package ztrace
