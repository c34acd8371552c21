// Package testutil provides in-memory repositories and collaborators for
// service and handler tests. The fakes mirror the error behaviour of the
// Postgres store: ErrNotFound for missing rows and ErrDuplicateEmail for a
// reused email.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aryanprajapat98/REMS/internal/storage"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
)

// DB is the shared state behind the in-memory repositories.
type DB struct {
	mu       sync.Mutex
	nextID   int
	users    map[int]types.User
	resets   map[string]string
	listings map[int]types.Listing
	leads    []types.Lead
	messages []types.Message
}

// NewDB returns an empty in-memory database.
func NewDB() *DB {
	return &DB{
		users:    map[int]types.User{},
		resets:   map[string]string{},
		listings: map[int]types.Listing{},
	}
}

func (d *DB) id() int {
	d.nextID++
	return d.nextID
}

func (d *DB) Users() *Users       { return &Users{db: d} }
func (d *DB) Resets() *Resets     { return &Resets{db: d} }
func (d *DB) Listings() *Listings { return &Listings{db: d} }
func (d *DB) Leads() *Leads       { return &Leads{db: d} }
func (d *DB) Messages() *Messages { return &Messages{db: d} }
func (d *DB) Stats() *Stats       { return &Stats{db: d} }

type Users struct{ db *DB }

func (u *Users) GetByID(_ context.Context, id int) (types.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	user, ok := u.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (types.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, user := range u.db.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (u *Users) Create(_ context.Context, user types.User) (types.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, existing := range u.db.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = u.db.id()
	user.CreatedAt = time.Now()
	u.db.users[user.ID] = user
	return user, nil
}

func (u *Users) List(_ context.Context) ([]types.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	users := make([]types.User, 0, len(u.db.users))
	for _, user := range u.db.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type Resets struct{ db *DB }

func (r *Resets) Create(_ context.Context, email, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.resets[token] = email
	return nil
}

func (r *Resets) Consume(_ context.Context, token, passwordHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email, ok := r.db.resets[token]
	if !ok {
		return store.ErrNotFound
	}
	for id, user := range r.db.users {
		if user.Email == email {
			user.PasswordHash = passwordHash
			r.db.users[id] = user
			delete(r.db.resets, token)
			return nil
		}
	}
	return store.ErrNotFound
}

type Listings struct{ db *DB }

func (l *Listings) withContact(listing types.Listing) types.Listing {
	if owner, ok := l.db.users[listing.OwnerID]; ok {
		listing.OwnerContact = owner.ContactNumber
	}
	return listing
}

func (l *Listings) Create(_ context.Context, listing types.Listing, contactNumber *string) (types.Listing, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	owner, ok := l.db.users[listing.OwnerID]
	if !ok {
		return types.Listing{}, store.ErrNotFound
	}
	if contactNumber != nil {
		contact := *contactNumber
		owner.ContactNumber = &contact
		l.db.users[owner.ID] = owner
	}
	listing.ID = l.db.id()
	listing.CreatedAt = time.Now()
	l.db.listings[listing.ID] = listing
	return l.withContact(listing), nil
}

func (l *Listings) Get(_ context.Context, id int) (types.Listing, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	listing, ok := l.db.listings[id]
	if !ok {
		return types.Listing{}, store.ErrNotFound
	}
	return l.withContact(listing), nil
}

func (l *Listings) filter(keep func(types.Listing) bool) []types.Listing {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	listings := make([]types.Listing, 0)
	for _, listing := range l.db.listings {
		if keep(listing) {
			listings = append(listings, l.withContact(listing))
		}
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })
	return listings
}

func (l *Listings) ListApproved(_ context.Context) ([]types.Listing, error) {
	return l.filter(func(listing types.Listing) bool { return listing.Approved }), nil
}

func (l *Listings) ListAll(_ context.Context) ([]types.Listing, error) {
	return l.filter(func(types.Listing) bool { return true }), nil
}

func (l *Listings) Search(_ context.Context, f types.ListingFilter) ([]types.Listing, error) {
	query := strings.ToLower(f.Query)
	location := strings.ToLower(f.Location)
	return l.filter(func(listing types.Listing) bool {
		return listing.Approved &&
			strings.Contains(strings.ToLower(listing.Title), query) &&
			strings.Contains(strings.ToLower(listing.Location), location) &&
			listing.Price >= f.MinPrice &&
			(f.MaxPrice == nil || listing.Price <= *f.MaxPrice)
	}), nil
}

func (l *Listings) Approve(_ context.Context, id int) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	listing, ok := l.db.listings[id]
	if !ok {
		return store.ErrNotFound
	}
	listing.Approved = true
	l.db.listings[id] = listing
	return nil
}

func (l *Listings) Delete(_ context.Context, id, ownerID int, anyOwner bool) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	listing, ok := l.db.listings[id]
	if !ok || (!anyOwner && listing.OwnerID != ownerID) {
		return store.ErrNotFound
	}
	delete(l.db.listings, id)
	return nil
}

type Leads struct{ db *DB }

func (l *Leads) Create(_ context.Context, lead types.Lead) (types.Lead, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	lead.ID = l.db.id()
	lead.CreatedAt = time.Now()
	l.db.leads = append(l.db.leads, lead)
	return lead, nil
}

func (l *Leads) List(_ context.Context) ([]types.Lead, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return append([]types.Lead{}, l.db.leads...), nil
}

type Messages struct{ db *DB }

func (m *Messages) Create(_ context.Context, message types.Message) (types.Message, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[message.SenderID]; !ok {
		return types.Message{}, store.ErrNotFound
	}
	if _, ok := m.db.users[message.ReceiverID]; !ok {
		return types.Message{}, store.ErrNotFound
	}
	message.ID = m.db.id()
	message.CreatedAt = time.Now()
	m.db.messages = append(m.db.messages, message)
	return message, nil
}

func (m *Messages) ListThread(_ context.Context, listingID, userID int) ([]types.Message, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	thread := make([]types.Message, 0)
	for _, message := range m.db.messages {
		if message.ListingID != listingID || (message.SenderID != userID && message.ReceiverID != userID) {
			continue
		}
		sender := m.db.users[message.SenderID]
		message.SenderName = sender.Name
		message.SenderContact = sender.ContactNumber
		thread = append(thread, message)
	}
	return thread, nil
}

func (m *Messages) CountReceived(_ context.Context, userID int) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	count := 0
	for _, message := range m.db.messages {
		if message.ReceiverID == userID {
			count++
		}
	}
	return count, nil
}

type Stats struct{ db *DB }

func (s *Stats) Counts(_ context.Context) (users, listings, leads int, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.users), len(s.db.listings), len(s.db.leads), nil
}

// Images is an in-memory image store.
type Images struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func NewImages() *Images {
	return &Images{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (i *Images) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.objects[key] = data
	i.contentTypes[key] = contentType
	return nil
}

func (i *Images) Get(_ context.Context, key string) (io.ReadCloser, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	data, ok := i.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (i *Images) Delete(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.objects, key)
	delete(i.contentTypes, key)
	return nil
}

// Len reports how many images are stored.
func (i *Images) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.objects)
}

// Notifier records notifications instead of delivering them.
type Notifier struct {
	mu     sync.Mutex
	Resets map[string]string
	Leads  []types.Lead
}

func NewNotifier() *Notifier {
	return &Notifier{Resets: map[string]string{}}
}

func (n *Notifier) PasswordResetRequested(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Resets[email] = token
	return nil
}

func (n *Notifier) LeadSubmitted(_ context.Context, lead types.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Leads = append(n.Leads, lead)
	return nil
}

// ResetToken returns the last token issued for email.
func (n *Notifier) ResetToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Resets[email]
}
