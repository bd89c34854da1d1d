// Package types defines the EntityStore and SettingStore interfaces, the
// Record and Config types, and the standard errors for the County Connect
// entity persistence layer.
package types
