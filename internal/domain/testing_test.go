package domain

import coredomain "github.com/nexusiam/iamcore/pkg/domain"

// nopLogger discards every call, used across this package's tests so each
// aggregate test only has to deal with the ctx/logger parameters emit()
// requires, not a real logging backend.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})   {}
func (nopLogger) Warn(string, ...interface{})   {}
func (nopLogger) Error(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

var _ coredomain.Logger = nopLogger{}

// fakeExecutionGraph is a test double for executionGraph: a fixed adjacency
// map of execution id -> its current includes, the same shape the
// projection layer keeps in sync in production.
type fakeExecutionGraph map[string][]string

func (g fakeExecutionGraph) IncludesOf(executionID string) []string { return g[executionID] }
