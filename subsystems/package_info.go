// Package subsystems contains interfaces for the external collaborators of the event pipeline.
//
// Most applications will not need to refer to these types. You will use them if you are
// supplying a custom component, such as a replacement durable queue, a host shared-state
// bridge, or a test fixture. They are also the interfaces of the built-in components, so that
// custom components can be used interchangeably with those.
package subsystems
