package spacenote

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

var userIDRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// UserService manages user accounts and session tokens. Users are cached
// in memory; sessions live only in storage.
type UserService struct {
	store store.Store

	mu    sync.RWMutex
	cache map[string]*types.User
}

func NewUserService(st store.Store) *UserService {
	return &UserService{
		store: st,
		cache: make(map[string]*types.User),
	}
}

func (s *UserService) users() store.Collection    { return s.store.Global("users") }
func (s *UserService) sessions() store.Collection { return s.store.Global("sessions") }

// Start loads all users into the cache.
func (s *UserService) Start(ctx context.Context) error {
	docs, err := s.users().Find(ctx, bson.M{}, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		var user types.User
		if err := fromDoc(doc, &user); err != nil {
			return err
		}
		// PasswordHash is json:"-", carry it over from the raw document.
		if hash, ok := doc["password_hash"].(string); ok {
			user.PasswordHash = hash
		}
		s.cache[user.ID] = &user
	}
	return nil
}

// GetUser returns a user from the cache.
func (s *UserService) GetUser(id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.cache[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", types.ErrNotFound, id)
	}
	return user, nil
}

// ListUsers returns all cached users.
func (s *UserService) ListUsers() []*types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*types.User, 0, len(s.cache))
	for _, user := range s.cache {
		users = append(users, user)
	}
	return users
}

// CreateUser creates an account with a bcrypt password hash.
func (s *UserService) CreateUser(ctx context.Context, id, password string) (*types.User, error) {
	if !userIDRe.MatchString(id) {
		return nil, fmt.Errorf("%w: invalid username %q", types.ErrValidation, id)
	}
	if _, err := s.GetUser(id); err == nil {
		return nil, fmt.Errorf("%w: user %q already exists", types.ErrValidation, id)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{ID: id, PasswordHash: string(hash)}
	doc, err := toDoc(user)
	if err != nil {
		return nil, err
	}
	doc["password_hash"] = user.PasswordHash
	if err := s.users().Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", id, err)
	}

	s.mu.Lock()
	s.cache[id] = user
	s.mu.Unlock()
	return user, nil
}

// ChangePassword rehashes and stores a new password.
func (s *UserService) ChangePassword(ctx context.Context, id, password string) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users().UpdateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": string(hash)}}); err != nil {
		return err
	}
	s.mu.Lock()
	// Replace the cache entry; callers may still hold the old pointer.
	if user, ok := s.cache[id]; ok {
		updated := *user
		updated.PasswordHash = string(hash)
		s.cache[id] = &updated
	}
	s.mu.Unlock()
	return nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, id, password string) (*types.Session, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", types.ErrValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid credentials", types.ErrValidation)
	}

	session := &types.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	doc, err := toDoc(session)
	if err != nil {
		return nil, err
	}
	doc["_id"] = session.Token
	if err := s.sessions().Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Authenticate resolves a session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*types.User, error) {
	doc, err := s.sessions().FindByID(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session", types.ErrNotFound)
	}
	var session types.Session
	if err := fromDoc(doc, &session); err != nil {
		return nil, err
	}
	return s.GetUser(session.UserID)
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	err := s.sessions().DeleteByID(ctx, token)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	return nil
}
