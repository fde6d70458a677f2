package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/events"
	"github.com/phrazzld/marginalia/internal/platform/logger"
	"github.com/phrazzld/marginalia/internal/platform/mail"
	"github.com/phrazzld/marginalia/internal/platform/metrics"
	"github.com/phrazzld/marginalia/internal/store"
)

// ErrTemplateRender is returned when a notification cannot be rendered or
// has nobody to go to.
var ErrTemplateRender = errors.New("failed to render notification")

// replyDescription is stored on every subscription created here.
const replyDescription = "General reply notification"

// Parent is the annotation a reply answers. Quote holds the grandparent's
// text when the parent is itself a reply.
type Parent struct {
	Annotation *domain.Annotation
	Quote      string
}

// UserID returns the parent's author, or "" for an empty parent.
func (p *Parent) UserID() string {
	if p == nil || p.Annotation == nil {
		return ""
	}
	return p.Annotation.UserID
}

// Data is what a single subscription is evaluated against.
type Data struct {
	Parent       *Parent
	Subscription *domain.Subscription
}

// TemplateMap holds the values the reply templates render.
type TemplateMap struct {
	DocumentTitle string
	DocumentPath  string

	ParentText        string
	ParentUser        string
	ParentTimestamp   time.Time
	ParentUserProfile string
	ParentPath        string

	ReplyText        string
	ReplyUser        string
	ReplyTimestamp   time.Time
	ReplyUserProfile string
	ReplyPath        string

	Unsubscribe string
}

// Config carries the public address the links in emails point to.
type Config struct {
	Domain string
	Scheme string
}

func (c Config) baseURL() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + c.Domain
}

// Dispatcher reacts to annotation, login and registration events.
type Dispatcher struct {
	annotations   store.AnnotationStore
	subscriptions store.SubscriptionStore
	users         store.UserStore
	mailer        mail.Sender
	templates     *Templates
	cfg           Config
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	annotations store.AnnotationStore,
	subscriptions store.SubscriptionStore,
	users store.UserStore,
	mailer mail.Sender,
	templates *Templates,
	cfg Config,
	logger *slog.Logger,
) (*Dispatcher, error) {
	if annotations == nil || subscriptions == nil || users == nil {
		return nil, errors.New("notification: stores cannot be nil")
	}
	if mailer == nil {
		return nil, errors.New("notification: mailer cannot be nil")
	}
	if templates == nil {
		return nil, errors.New("notification: templates cannot be nil")
	}
	if cfg.Domain == "" {
		return nil, errors.New("notification: domain cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		annotations:   annotations,
		subscriptions: subscriptions,
		users:         users,
		mailer:        mailer,
		templates:     templates,
		cfg:           cfg,
		logger:        logger.With("component", "notification"),
	}, nil
}

// Register subscribes the dispatcher to the events it handles.
func (d *Dispatcher) Register(emitter *events.InMemoryEventEmitter) {
	emitter.Subscribe(events.NameAnnotation, events.OnAnnotation(d.SendNotifications))
	emitter.Subscribe(events.NameRegistration, events.OnRegistration(d.RegistrationSubscriptions))
	emitter.Subscribe(events.NameLogin, events.OnLogin(d.CheckReplySubscriptions))
}

// stores binds the stores to the transaction in ctx, so subscriptions made
// while handling an event commit with the change that raised it.
func (d *Dispatcher) stores(ctx context.Context) (store.AnnotationStore, store.SubscriptionStore, store.UserStore) {
	tx, ok := store.TxFromContext(ctx)
	if !ok {
		return d.annotations, d.subscriptions, d.users
	}
	return d.annotations.WithTx(tx), d.subscriptions.WithTx(tx), d.users.WithTx(tx)
}

// ParentValues loads the annotation a reply answers. A non-reply yields an
// empty Parent. A deleted grandparent leaves Quote empty.
func (d *Dispatcher) ParentValues(ctx context.Context, a *domain.Annotation) (*Parent, error) {
	parentID, ok := a.ParentID()
	if !ok {
		return &Parent{}, nil
	}
	annotations, _, _ := d.stores(ctx)

	parent, err := annotations.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read parent %s: %w", parentID, err)
	}
	p := &Parent{Annotation: parent}

	if grandparentID, ok := parent.ParentID(); ok {
		grandparent, err := annotations.GetByID(ctx, grandparentID)
		switch {
		case store.IsNotFoundError(err):
			logger.FromContextOrDefault(ctx, d.logger).Debug("grandparent deleted, no quote",
				"grandparent_id", grandparentID)
		case err != nil:
			return nil, fmt.Errorf("failed to read grandparent %s: %w", grandparentID, err)
		default:
			p.Quote = grandparent.Text
		}
	}
	return p, nil
}

// CreateTemplateMap builds the values for rendering reply against data.
func (d *Dispatcher) CreateTemplateMap(reply *domain.Annotation, data Data) TemplateMap {
	parent := data.Parent.Annotation
	return TemplateMap{
		DocumentTitle: reply.DocumentTitle(),
		DocumentPath:  parent.TargetURI,

		ParentText:        parent.Text,
		ParentUser:        domain.UsernameFromUserID(parent.UserID),
		ParentTimestamp:   naiveUTC(parent.Created),
		ParentUserProfile: d.userProfileURL(parent.UserID),
		ParentPath:        d.standaloneURL(parent.ID),

		ReplyText:        reply.Text,
		ReplyUser:        domain.UsernameFromUserID(reply.UserID),
		ReplyTimestamp:   naiveUTC(reply.Created),
		ReplyUserProfile: d.userProfileURL(reply.UserID),
		ReplyPath:        d.standaloneURL(reply.ID),

		Unsubscribe: fmt.Sprintf("%s/app?__formid__=unsubscribe&subscription_id=%d",
			d.cfg.baseURL(), data.Subscription.ID),
	}
}

func (d *Dispatcher) userProfileURL(userid string) string {
	return d.cfg.baseURL() + "/u/" + domain.UsernameFromUserID(userid)
}

func (d *Dispatcher) standaloneURL(id uuid.UUID) string {
	return d.cfg.baseURL() + "/a/" + id.String()
}

// naiveUTC drops the zone so templates show the UTC wall clock.
func naiveUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// GetRecipients returns the email of the parent's author.
func (d *Dispatcher) GetRecipients(ctx context.Context, data Data) ([]string, error) {
	userid := data.Parent.UserID()
	parsed, err := domain.ParseUserID(userid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	_, _, users := d.stores(ctx)

	user, err := users.GetByUsername(ctx, parsed.Username, parsed.Authority)
	if err != nil {
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, d.logger).Warn("user not found", "username", parsed.Username)
			return nil, fmt.Errorf("%w: user not found", ErrTemplateRender)
		}
		return nil, err
	}
	return []string{user.Email}, nil
}

// CheckConditions reports whether the subscription in data should be
// notified about a.
func CheckConditions(a *domain.Annotation, data Data) bool {
	parentUser := data.Parent.UserID()
	if parentUser == "" {
		return false
	}
	if a.UserID == parentUser {
		return false
	}
	return data.Subscription != nil && parentUser == data.Subscription.URI
}

// CreateSubscription stores a reply subscription for uri.
func (d *Dispatcher) CreateSubscription(ctx context.Context, uri string, active bool) error {
	sub, err := domain.NewSubscription(uri, domain.TemplateReply, replyDescription, active)
	if err != nil {
		return err
	}
	_, subscriptions, _ := d.stores(ctx)
	return subscriptions.Create(ctx, sub)
}

// SendNotifications mails the authors of the annotation's parent. Only new,
// public replies notify anyone. A parent that cannot be read and failures
// for one subscription are logged and never fail the event. Mail is handed
// to the mailer only after the surrounding transaction commits.
func (d *Dispatcher) SendNotifications(ctx context.Context, ev events.AnnotationEvent) error {
	a := ev.Annotation
	if ev.Action != domain.ActionCreate || a == nil {
		return nil
	}
	if !a.IsPublic() {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, d.logger).With("annotation_id", a.ID)

	parent, err := d.ParentValues(ctx, a)
	if err != nil {
		log.Error("failed to load reply parent, skipping notifications", "error", err)
		return nil
	}
	if parent.UserID() == "" {
		return nil
	}

	_, subscriptions, _ := d.stores(ctx)
	subs, err := subscriptions.GetActiveForTemplate(ctx, domain.TemplateReply)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		data := Data{Parent: parent, Subscription: sub}
		if !CheckConditions(a, data) {
			continue
		}
		msg, err := d.render(ctx, a, data)
		if err != nil {
			if errors.Is(err, ErrTemplateRender) {
				log.Error("failed to render subscription template",
					"subscription_id", sub.ID, "error", err)
			} else {
				log.Error("unknown error when trying to render subscription template",
					"subscription_id", sub.ID, "error", err)
			}
			continue
		}
		subID := sub.ID
		store.AfterCommit(ctx, func(ctx context.Context) {
			d.deliver(ctx, msg, subID)
		})
	}
	return nil
}

func (d *Dispatcher) render(ctx context.Context, a *domain.Annotation, data Data) (mail.Message, error) {
	rendered, err := d.templates.Render(d.CreateTemplateMap(a, data))
	if err != nil {
		return mail.Message{}, err
	}
	recipients, err := d.GetRecipients(ctx, data)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		Recipients: recipients,
		Subject:    rendered.Subject,
		Body:       rendered.Text,
		HTML:       rendered.HTML,
	}, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg mail.Message, subscriptionID int64) {
	log := logger.FromContextOrDefault(ctx, d.logger)
	if err := d.mailer.Send(ctx, msg); err != nil {
		log.Error("unknown error when trying to send reply notification",
			"subscription_id", subscriptionID, "error", err)
		return
	}
	metrics.RecordNotificationSent()
	log.Info("reply notification sent", "subscription_id", subscriptionID)
}

// RegistrationSubscriptions gives a new user an active reply subscription.
func (d *Dispatcher) RegistrationSubscriptions(ctx context.Context, ev events.RegistrationEvent) error {
	if ev.User == nil {
		return nil
	}
	return d.subscribe(ctx, ev.User)
}

// CheckReplySubscriptions creates a reply subscription for users who log in
// without one.
func (d *Dispatcher) CheckReplySubscriptions(ctx context.Context, ev events.LoginEvent) error {
	if ev.User == nil {
		return nil
	}
	uri := domain.FormatUserID(ev.User.Username, d.cfg.Domain)
	_, subscriptions, _ := d.stores(ctx)

	existing, err := subscriptions.GetForURIAndTemplate(ctx, uri, domain.TemplateReply)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return d.subscribe(ctx, ev.User)
}

func (d *Dispatcher) subscribe(ctx context.Context, user *domain.User) error {
	uri := domain.FormatUserID(user.Username, d.cfg.Domain)
	if err := d.CreateSubscription(ctx, uri, true); err != nil {
		return fmt.Errorf("failed to create reply subscription for %s: %w", uri, err)
	}
	_, _, users := d.stores(ctx)
	if err := users.SetSubscriptions(ctx, user.ID, true); err != nil {
		return err
	}
	user.Subscriptions = true
	logger.FromContextOrDefault(ctx, d.logger).Debug("reply subscription created", "uri", uri)
	return nil
}
