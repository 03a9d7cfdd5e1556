package inventory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/models"
)

// Demo credentials accepted by MockSource
const (
	DemoUsername = "admin"
	DemoPassword = "admin123"
)

// MockSource is an in-memory stand-in for the products API. It issues real
// signed tokens so the session guard treats demo and live sessions alike.
type MockSource struct {
	mu    sync.RWMutex
	items []models.InventoryItem

	jwt   *auth.JWTManager
	users map[string]mockUser
	now   func() time.Time
}

type mockUser struct {
	hash []byte
	user models.User
}

// NewMockSource creates a mock seeded with the demo collection
func NewMockSource(jwt *auth.JWTManager) (*MockSource, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	m := &MockSource{
		jwt: jwt,
		users: map[string]mockUser{
			DemoUsername: {
				hash: hash,
				user: models.User{ID: uuid.NewString(), Username: DemoUsername, Name: "Demo Administrator", Role: "admin"},
			},
		},
		now: time.Now,
	}
	m.items = SeedItems(m.now())
	return m, nil
}

// SeedItems returns the demo collection with creation times relative to now
func SeedItems(now time.Time) []models.InventoryItem {
	seed := []struct {
		first, last, designation, dept, location, block, room string
		staff                                                 int
		make, model, serial, capacity, issued                 string
		status                                                models.Status
		age                                                   int
	}{
		{"David", "Onwuka", "IT Specialist", "IT", "Main Office", "A", "101", 1111, "Dell", "XPS 15", "SN430", "650VA", "2023-01-15", models.StatusFunctional, 1},
		{"Jane", "Smith", "HR Manager", "Human Resources", "Building B", "B", "205", 2111, "HP", "EliteBook", "SN257", "500VA", "2022-11-20", models.StatusNonFunctional, 12},
		{"John", "Doe", "Software Engineer", "Engineering", "Tech Park", "C", "310", 5112, "Lenovo", "ThinkPad T490", "SN405", "650VA", "2023-03-10", models.StatusFunctional, 45},
		{"Amaka", "Eze", "Accountant", "Finance", "Main Office", "A", "114", 3307, "APC", "Back-UPS 650", "SN512", "650VA", "2023-06-02", models.StatusFunctional, 80},
		{"Musa", "Bello", "Network Engineer", "IT", "Data Centre", "D", "002", 4420, "APC", "Back-UPS 650", "SN618", "650VA", "2023-08-21", models.StatusNonFunctional, 130},
	}

	items := make([]models.InventoryItem, 0, len(seed))
	for _, s := range seed {
		created := now.AddDate(0, 0, -s.age)
		items = append(items, models.InventoryItem{
			ID:           uuid.NewString(),
			FirstName:    s.first,
			LastName:     s.last,
			StaffID:      models.StaffID(s.staff),
			Designation:  s.designation,
			Department:   s.dept,
			Location:     s.location,
			Block:        s.block,
			RoomNumber:   s.room,
			Make:         s.make,
			Model:        s.model,
			SerialNumber: s.serial,
			CapacityVA:   s.capacity,
			IssueDate:    s.issued,
			Status:       s.status,
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}
	return items
}

// Login checks the demo credentials and issues a signed token
func (m *MockSource) Login(_ context.Context, username, password string) (*models.LoginResponse, error) {
	u, ok := m.users[username]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return nil, &client.APIError{Kind: client.ErrAuth, Op: "login", Status: 401, Message: "Invalid credentials"}
	}
	token, err := m.jwt.GenerateToken(u.user)
	if err != nil {
		return nil, &client.APIError{Kind: client.ErrServer, Op: "login", Status: 500, Message: "token generation failed", Err: err}
	}
	return &models.LoginResponse{Token: token, User: u.user}, nil
}

// ForSession returns a Source that checks s's token on every call
func (m *MockSource) ForSession(s *auth.Session) Source {
	return &mockSession{mock: m, session: s}
}

type mockSession struct {
	mock    *MockSource
	session *auth.Session
}

func (ms *mockSession) authorize(op string) error {
	if !ms.session.Authenticated() {
		return &client.APIError{Kind: client.ErrAuth, Op: op, Message: "no session token"}
	}
	claims, err := ms.mock.jwt.ValidateToken(ms.session.Token)
	if err != nil {
		return &client.APIError{Kind: client.ErrAuth, Op: op, Status: 401, Message: "Unauthorized", Err: err}
	}
	// tokens signed with the shared secret still need a known account
	if _, ok := ms.mock.users[claims.User().Username]; !ok {
		return &client.APIError{Kind: client.ErrAuth, Op: op, Status: 401, Message: "Unknown user"}
	}
	return nil
}

func (ms *mockSession) List(_ context.Context) ([]models.InventoryItem, error) {
	if err := ms.authorize("list"); err != nil {
		return nil, err
	}
	ms.mock.mu.RLock()
	defer ms.mock.mu.RUnlock()
	return append([]models.InventoryItem{}, ms.mock.items...), nil
}

func (ms *mockSession) Create(_ context.Context, in models.ItemInput) (*models.InventoryItem, error) {
	if err := ms.authorize("create"); err != nil {
		return nil, err
	}
	if err := checkInput("create", in); err != nil {
		return nil, err
	}

	ms.mock.mu.Lock()
	defer ms.mock.mu.Unlock()
	now := ms.mock.now()
	it := models.InventoryItem{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.Apply(&it)
	ms.mock.items = append(ms.mock.items, it)
	return &it, nil
}

func (ms *mockSession) Update(_ context.Context, id string, in models.ItemInput) (*models.InventoryItem, error) {
	if err := ms.authorize("update"); err != nil {
		return nil, err
	}
	if err := checkInput("update", in); err != nil {
		return nil, err
	}

	ms.mock.mu.Lock()
	defer ms.mock.mu.Unlock()
	for i := range ms.mock.items {
		if ms.mock.items[i].ID == id {
			in.Apply(&ms.mock.items[i])
			ms.mock.items[i].UpdatedAt = ms.mock.now()
			it := ms.mock.items[i]
			return &it, nil
		}
	}
	return nil, &client.APIError{Kind: client.ErrNotFound, Op: "update", Status: 404, Message: "Product not found"}
}

func (ms *mockSession) Delete(_ context.Context, id string) error {
	if err := ms.authorize("delete"); err != nil {
		return err
	}

	ms.mock.mu.Lock()
	defer ms.mock.mu.Unlock()
	for i := range ms.mock.items {
		if ms.mock.items[i].ID == id {
			ms.mock.items = append(ms.mock.items[:i], ms.mock.items[i+1:]...)
			return nil
		}
	}
	return &client.APIError{Kind: client.ErrNotFound, Op: "delete", Status: 404, Message: "Product not found"}
}

// checkInput mirrors the API's server-side checks
func checkInput(op string, in models.ItemInput) error {
	var missing []string
	if in.StaffID == nil {
		missing = append(missing, "staffId")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(in.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(in.SerialNumber) == "" {
		missing = append(missing, "serialNumber")
	}
	if !in.Status.Valid() {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return &client.APIError{
			Kind:    client.ErrValidation,
			Op:      op,
			Status:  400,
			Message: "invalid fields: " + strings.Join(missing, ", "),
		}
	}
	return nil
}
