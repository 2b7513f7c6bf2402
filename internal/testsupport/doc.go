// Package testsupport holds helpers shared by package tests: temp-directory
// configs, a store opener and an in-memory catalog with failure hooks.
package testsupport
