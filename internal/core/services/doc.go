// Package services implements the driving port interfaces.
// Services contain the analysis pipeline and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. They never talk to a model
// server or database directly; every side effect goes through a port.
package services
