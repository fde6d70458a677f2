// Package events provides the in-process publish/subscribe mechanism used to
// decouple the API services from their side effects.
//
// Services emit AnnotationEvent, LoginEvent and RegistrationEvent values;
// subscribers such as the notification dispatcher register handlers against
// the event name. Emission is synchronous: every handler runs in the caller's
// goroutine before Emit returns.
package events
