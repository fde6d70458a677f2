// Package domain defines the core entities of the annotation platform:
// users, groups, annotations, notification subscriptions and the
// short-lived credentials (auth tickets, developer tokens) that the
// background cleanup jobs expire.
package domain
