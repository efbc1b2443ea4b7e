package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gomc/website/listing"
	"github.com/gomc/website/models"
)

// RegistrationOrder selects the sort key of a registration listing.
type RegistrationOrder int

const (
	OrderByName RegistrationOrder = iota
	OrderByEmail
	OrderByText
	OrderByCreated
)

var registrationOrderNames = [...]string{"Name", "Email", "Text", "Created"}

// registrationColumns is the only path from an ordering key to SQL.
var registrationColumns = map[RegistrationOrder]string{
	OrderByName:    "name",
	OrderByEmail:   "email",
	OrderByText:    "text",
	OrderByCreated: "created",
}

func (o RegistrationOrder) String() string {
	if o < 0 || int(o) >= len(registrationOrderNames) {
		return registrationOrderNames[OrderByName]
	}
	return registrationOrderNames[o]
}

// Column returns the allow-listed column for o; unknown keys sort by name.
func (o RegistrationOrder) Column() string {
	if c, ok := registrationColumns[o]; ok {
		return c
	}
	return registrationColumns[OrderByName]
}

// ParseRegistrationOrder accepts a key name (case-insensitive) or its number.
// Anything else falls back to OrderByName.
func ParseRegistrationOrder(s string) RegistrationOrder {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		o := RegistrationOrder(n)
		if _, ok := registrationColumns[o]; ok {
			return o
		}
		return OrderByName
	}
	for i, name := range registrationOrderNames {
		if strings.EqualFold(name, s) {
			return RegistrationOrder(i)
		}
	}
	return OrderByName
}

// UnmarshalJSON accepts either a number or a key name.
func (o *RegistrationOrder) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("registration order: %w", err)
		}
		s = n.String()
	}
	*o = ParseRegistrationOrder(s)
	return nil
}

// MarshalJSON renders the key name.
func (o RegistrationOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// RegistrationQuery describes one registration listing request.
type RegistrationQuery struct {
	Page        listing.Page
	OrderBy     RegistrationOrder
	Desc        bool
	NameFilter  string
	EmailFilter string
}

// RegistrationStore captures and lists sign-up records.
type RegistrationStore struct {
	db  *gorm.DB
	now Clock
	log *zap.Logger
}

// NewRegistrationStore creates a RegistrationStore. log receives warnings
// about ignored filters and may be nil.
func NewRegistrationStore(db *gorm.DB, now Clock, log *zap.Logger) *RegistrationStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationStore{db: db, now: clockOrNow(now), log: log}
}

// Add appends a registration stamped with the current time.
func (s *RegistrationStore) Add(ctx context.Context, r *models.Registration) error {
	r.ID = 0
	r.Created = s.now()
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("add registration: %w", err)
	}
	return nil
}

// List returns the filtered, ordered page and the filtered total.
func (s *RegistrationStore) List(ctx context.Context, q RegistrationQuery) ([]models.Registration, int, error) {
	var rows []models.Registration
	err := s.db.WithContext(ctx).
		Clauses(listing.OrderBy(q.OrderBy.Column(), q.Desc)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	nameRe := listing.CompileFilter(q.NameFilter, s.log)
	emailRe := listing.CompileFilter(q.EmailFilter, s.log)
	filtered := rows[:0]
	for _, r := range rows {
		if listing.Match(nameRe, r.Name) && listing.Match(emailRe, r.Email) {
			filtered = append(filtered, r)
		}
	}
	return listing.Slice(filtered, q.Page), len(filtered), nil
}
