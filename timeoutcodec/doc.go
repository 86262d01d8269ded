// Package timeoutcodec encodes and decodes the grpc-timeout wire
// value: a duration packed into at most eight ASCII bytes, rounded up
// to a whole number of a unit from the ns/ms/S/M/H ladder.
package timeoutcodec
