package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/vesaa/patchdeck/internal/apperr"
	"github.com/vesaa/patchdeck/internal/logging"
)

// MsgMissingFields is the validation message for absent required input.
const MsgMissingFields = "Missing required fields"

// Store is the fleet repository. It keeps no state between calls: every method
// acquires its own session from the Provider and releases it before returning.
type Store struct {
	p        *Provider
	validate *validator.Validate
	now      func() time.Time
	log      *logrus.Entry
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for tests and deterministic seeding.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger; entries are tagged component=db.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = logging.Component(l, "db") }
}

// New returns a Store reading and writing through p.
func New(p *Provider, opts ...Option) *Store {
	s := &Store{
		p:        p,
		validate: newValidator(),
		now:      time.Now,
		log:      logging.Component(logging.Discard(), "db"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider exposes the session source.
func (s *Store) Provider() *Provider { return s.p }

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.p.Ping(ctx); err != nil {
		return apperr.Unavailable("database unreachable", err)
	}
	return nil
}

// checkInStamp is the time written to last_check_in. It is always UTC so
// the sweeper's cutoff compares correctly against TEXT columns on SQLite.
func (s *Store) checkInStamp() time.Time {
	return s.now().UTC()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// check validates input before any persistence call and converts failures
// into apperr validation errors.
func (s *Store) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation(err.Error())
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return apperr.Validation(MsgMissingFields)
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "oneof":
		return apperr.Validation(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	case "gte":
		return apperr.Validation(fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
	default:
		return apperr.Validation(fmt.Sprintf("invalid %s", fe.Field()))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
