package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/orghub-api/internal/domain"
	"github.com/orghub-api/internal/pkg/id"
)

const defaultWorkers = 16

type userStore interface {
	GetBatch(ctx context.Context, userIDs []string) ([]domain.User, error)
}

type deviceStore interface {
	ActiveForUsers(ctx context.Context, userIDs []string) ([]domain.Device, error)
	DeactivateByToken(ctx context.Context, token string) error
}

type notificationStore interface {
	PutBatch(ctx context.Context, notifications []domain.Notification) error
}

type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

type pushClient interface {
	Send(ctx context.Context, accessToken, token, title, body string, data map[string]string) error
}

// Result aggregates the outcome of one dispatch call. The in-app rows in
// Recorded are the authoritative trail; the push counters describe the
// best-effort mirror.
type Result struct {
	Eligible    int
	Recorded    int
	Devices     int
	Sent        int
	Failed      int
	Deactivated int
}

// Service is the single entry point other subsystems use to notify users.
type Service interface {
	// Dispatch records one in-app notification per eligible user, then
	// fans the payload out to every active device. The returned error is
	// non-nil only when the durable recording failed; credential and
	// per-token delivery failures are absorbed.
	Dispatch(ctx context.Context, userIDs []string, p domain.Payload) (Result, error)
}

// ServiceDeps bundles the dispatcher's collaborators.
type ServiceDeps struct {
	UserRepo         userStore
	DeviceRepo       deviceStore
	NotificationRepo notificationStore
	Tokens           tokenSource
	Push             pushClient
	Workers          int
	Timeout          time.Duration
	Logger           *slog.Logger
}

type service struct {
	users         userStore
	devices       deviceStore
	notifications notificationStore
	tokens        tokenSource
	push          pushClient
	workers       int
	timeout       time.Duration
	logger        *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		users:         deps.UserRepo,
		devices:       deps.DeviceRepo,
		notifications: deps.NotificationRepo,
		tokens:        deps.Tokens,
		push:          deps.Push,
		workers:       workers,
		timeout:       deps.Timeout,
		logger:        logger.With("component", "dispatch"),
	}
}

func (s *service) Dispatch(ctx context.Context, userIDs []string, p domain.Payload) (Result, error) {
	var res Result
	if len(userIDs) == 0 {
		return res, nil
	}
	if !p.Category.Valid() {
		return res, fmt.Errorf("unknown category %q: %w", p.Category, domain.ErrBadRequest)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	users, err := s.users.GetBatch(ctx, userIDs)
	if err != nil {
		return res, fmt.Errorf("load users: %w", err)
	}
	eligible := make([]string, 0, len(users))
	for _, u := range users {
		if Eligible(p.Category, u) {
			eligible = append(eligible, u.UserID)
		}
	}
	if len(eligible) == 0 {
		return res, nil
	}
	res.Eligible = len(eligible)

	// The durable trail must exist before any push attempt; a recording
	// failure is the only error callers see.
	now := time.Now().UTC()
	notifications := make([]domain.Notification, 0, len(eligible))
	for _, uid := range eligible {
		notifications = append(notifications, domain.Notification{
			NotificationID: id.New(),
			UserID:         uid,
			Category:       p.Category,
			Title:          p.Title,
			Body:           p.Body,
			URL:            p.URL,
			Data:           p.Data,
			CreatedAt:      now,
		})
	}
	if err := s.notifications.PutBatch(ctx, notifications); err != nil {
		return res, fmt.Errorf("record notifications: %w", err)
	}
	res.Recorded = len(notifications)

	devices, err := s.devices.ActiveForUsers(ctx, eligible)
	if err != nil {
		s.logger.Error("load devices, push skipped", "err", err)
		return res, nil
	}
	res.Devices = len(devices)
	if len(devices) == 0 {
		// In-app delivery alone is a valid outcome.
		return res, nil
	}

	if s.tokens == nil || s.push == nil {
		s.logger.Warn("push delivery not configured, in-app only")
		return res, nil
	}

	bearer, err := s.tokens.Token(ctx)
	if err != nil {
		var ce *domain.CredentialError
		temporary := errors.As(err, &ce) && ce.Temporary
		s.logger.Error("mint push credential, push skipped",
			"err", err, "credential_error_temporary", temporary)
		return res, nil
	}

	s.fanOut(ctx, &res, bearer, devices, p)
	return res, nil
}

type sendOutcome struct {
	token string
	err   error
}

// fanOut drains the device list through a bounded worker pool, one blocking
// HTTP send per job, and folds every outcome into res before returning.
func (s *service) fanOut(ctx context.Context, res *Result, bearer string, devices []domain.Device, p domain.Payload) {
	data := pushData(p)

	workers := s.workers
	if workers > len(devices) {
		workers = len(devices)
	}

	jobs := make(chan domain.Device)
	outcomes := make(chan sendOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				err := s.push.Send(ctx, bearer, d.Token, p.Title, p.Body, data)
				outcomes <- sendOutcome{token: d.Token, err: err}
			}
		}()
	}
	go func() {
		for _, d := range devices {
			jobs <- d
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err == nil {
			res.Sent++
			continue
		}
		res.Failed++
		var de *domain.DeliveryError
		if errors.As(o.err, &de) && de.Unregistered {
			if err := s.devices.DeactivateByToken(ctx, o.token); err != nil {
				s.logger.Warn("deactivate stale token", "err", err)
			} else {
				res.Deactivated++
			}
			continue
		}
		s.logger.Warn("push send failed", "err", o.err)
	}
}

// pushData merges the caller's data with the url and category tags so the
// client can route and deep-link without a second lookup.
func pushData(p domain.Payload) map[string]string {
	data := make(map[string]string, len(p.Data)+2)
	for k, v := range p.Data {
		data[k] = v
	}
	data["category"] = string(p.Category)
	if p.URL != nil {
		data["url"] = *p.URL
	}
	return data
}
