// Package nn defines the native module and loss capabilities consumed by the
// trainer, plus small reference modules used in examples and tests.
package nn
