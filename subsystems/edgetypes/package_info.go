// Package edgetypes contains types that are used as parameters and return values within the
// subsystems interfaces.
//
// Most applications will not need to refer to these types directly unless they are implementing
// a custom component, such as a replacement network transport or durable queue.
package edgetypes
