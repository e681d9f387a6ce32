// Package edgeconsent tracks the current collect-consent value. The value is updated
// asynchronously from host consent signals and read synchronously by the intake path and the
// readiness gate.
package edgeconsent
