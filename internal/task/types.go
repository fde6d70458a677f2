package task

// Queue names.
const (
	QueueDefault = "default"
	QueueIndexer = "indexer"
)

// Task types.
const (
	TypeDeleteExpiredAuthTickets = "auth:delete_expired_auth_tickets"
	TypeDeleteExpiredTokens      = "auth:delete_expired_tokens"
	TypeRenameUser               = "admin:rename_user"
	TypeAddAnnotation            = "indexer:add_annotation"
	TypeDeleteAnnotation         = "indexer:delete_annotation"
	TypeSendMail                 = "mailer:send"
	TypeAddNIPSA                 = "nipsa:add_nipsa"
	TypeRemoveNIPSA              = "nipsa:remove_nipsa"
)

// routes sends indexer tasks to their own queue; everything else uses the default.
var routes = map[string]string{
	TypeAddAnnotation:    QueueIndexer,
	TypeDeleteAnnotation: QueueIndexer,
}

// Route returns the queue a task type is delivered on.
func Route(taskType string) string {
	if q, ok := routes[taskType]; ok {
		return q
	}
	return QueueDefault
}

// Types lists every registered task type.
func Types() []string {
	return []string{
		TypeDeleteExpiredAuthTickets,
		TypeDeleteExpiredTokens,
		TypeRenameUser,
		TypeAddAnnotation,
		TypeDeleteAnnotation,
		TypeSendMail,
		TypeAddNIPSA,
		TypeRemoveNIPSA,
	}
}

// Queues returns the asynq queue priorities. Both queues are served equally.
func Queues() map[string]int {
	return map[string]int{
		QueueDefault: 1,
		QueueIndexer: 1,
	}
}
