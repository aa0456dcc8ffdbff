// Package ui renders command lifecycle events as concise console messages.
//
// Fleet commands shell out to git and the GitHub CLI; the console event
// logger keeps that activity visible to the operator without duplicating the
// structured telemetry emitted by the zap logger.
package ui
