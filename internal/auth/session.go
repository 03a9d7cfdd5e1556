package auth

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	bolt "go.etcd.io/bbolt"

	"inventory-dashboard/internal/models"
)

// Session is the authenticated state of one dashboard user: the bearer
// token for the products API and the user blob returned at login.
type Session struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// NewSession builds a session and reads the token expiry when the token
// is a JWT.
func NewSession(token string, user models.User) *Session {
	s := &Session{Token: token, User: &user}
	if exp, ok := TokenExpiry(token); ok {
		s.ExpiresAt = exp
	}
	return s
}

// Authenticated reports whether the session holds a token
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Expired reports whether a known expiry is in the past
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the session
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext extracts the session stored by the guard
func SessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return nil
}

// Store persists sessions across browser requests
type Store interface {
	Load(r *http.Request) (*Session, error)
	Save(w http.ResponseWriter, r *http.Request, s *Session) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

const (
	cookieName = "inventory_session"
	tokenKey   = "token"
	userKey    = "user"
)

// CookieStore keeps the session in an encrypted, authenticated cookie
type CookieStore struct {
	store *sessions.CookieStore
}

// NewCookieStore derives signing and encryption keys from secret
func NewCookieStore(secret string, secure bool) *CookieStore {
	hashKey := sha256.Sum256([]byte("auth:" + secret))
	blockKey := sha256.Sum256([]byte("enc:" + secret))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: store}
}

// Load returns the session from the request cookie, or an empty session
// when the cookie is missing or cannot be decoded.
func (c *CookieStore) Load(r *http.Request) (*Session, error) {
	sess, err := c.store.Get(r, cookieName)
	if err != nil {
		// Tampered or stale cookie; treat as logged out.
		return &Session{}, nil
	}

	token, _ := sess.Values[tokenKey].(string)
	s := &Session{Token: token}
	if raw, ok := sess.Values[userKey].(string); ok && raw != "" {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.User = &u
		}
	}
	if exp, ok := TokenExpiry(token); ok {
		s.ExpiresAt = exp
	}
	return s, nil
}

// Save writes the session cookie
func (c *CookieStore) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	sess, _ := c.store.Get(r, cookieName)
	sess.Values[tokenKey] = s.Token
	if s.User != nil {
		raw, err := json.Marshal(s.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		sess.Values[userKey] = string(raw)
	} else {
		delete(sess.Values, userKey)
	}
	return sess.Save(r, w)
}

// Clear deletes the token and the cached user identity
func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, cookieName)
	delete(sess.Values, tokenKey)
	delete(sess.Values, userKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

var sessionBucket = []byte("session")

// FileStore persists a single CLI session in a bbolt database
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) open(readOnly bool) (*bolt.DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
			return nil, err
		}
	}
	return bolt.Open(f.path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: readOnly})
}

// Load returns the stored session, or an empty session if none was saved
func (f *FileStore) Load() (*Session, error) {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	db, err := f.open(true)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer db.Close()

	s := &Session{}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b == nil {
			return nil
		}
		s.Token = string(b.Get([]byte(tokenKey)))
		if raw := b.Get([]byte(userKey)); len(raw) > 0 {
			var u models.User
			if err := json.Unmarshal(raw, &u); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			s.User = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if exp, ok := TokenExpiry(s.Token); ok {
		s.ExpiresAt = exp
	}
	return s, nil
}

// Save replaces the stored session
func (f *FileStore) Save(s *Session) error {
	db, err := f.open(false)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(tokenKey), []byte(s.Token)); err != nil {
			return err
		}
		if s.User == nil {
			return b.Delete([]byte(userKey))
		}
		raw, err := json.Marshal(s.User)
		if err != nil {
			return err
		}
		return b.Put([]byte(userKey), raw)
	})
}

// Clear removes the token and user from the file
func (f *FileStore) Clear() error {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	db, err := f.open(false)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(sessionBucket) == nil {
			return nil
		}
		return tx.DeleteBucket(sessionBucket)
	})
}

func bearer(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}

// AuthorizationHeader returns the value of the Authorization header for s
func (s *Session) AuthorizationHeader() string {
	if !s.Authenticated() {
		return ""
	}
	return bearer(s.Token)
}
