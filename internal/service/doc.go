// Package service holds the use cases behind the HTTP API: accounts and
// developer tokens, annotation create/read/delete/search, group listing and
// membership, and notification subscriptions.
//
// Services depend on the store interfaces and never on a concrete database.
// Expected failures are returned as sentinels (ErrNotOwned and friends) or as
// domain and store errors; anything unexpected is wrapped in a ServiceError
// naming the service and operation.
package service
