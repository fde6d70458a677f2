// Package notification sends reply notification emails.
//
// A Dispatcher subscribes to annotation, login and registration events. New
// public replies are matched against active reply subscriptions, rendered
// through the embedded templates and handed to a mail.Sender. Registration
// and login events make sure every account has a reply subscription.
package notification
