package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/events"
	"storefront/metrics"
	"storefront/models"
	"storefront/store/memstore"
	"storefront/utils"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type sentMail struct {
	to, subject string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingSender) Send(_ context.Context, to, subject, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to: to, subject: subject})
	return nil
}

func (r *recordingSender) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, m := range r.sent {
		out = append(out, m.subject)
	}
	return out
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.OrderMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.OrderMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

type fixture struct {
	svc       *Services
	store     *memstore.Store
	metrics   *metrics.Metrics
	mail      *recordingSender
	publisher *recordingPublisher
}

func newFixture(t *testing.T, mutate ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		store:     memstore.New(),
		metrics:   metrics.New(prometheus.NewRegistry()),
		mail:      &recordingSender{},
		publisher: &recordingPublisher{},
	}
	d := Deps{
		Store:      f.store,
		JWT:        utils.NewJWTManager("test-secret-0123456789", time.Hour),
		Email:      utils.NewEmailService(f.mail),
		Publisher:  f.publisher,
		Metrics:    f.metrics,
		Now:        func() time.Time { return testNow },
		Background: func(fn func()) { fn() },
	}
	for _, m := range mutate {
		m(&d)
	}
	f.svc = New(d)
	return f
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		Description:   name + " description",
		Price:         price,
		ImageURL:      models.DefaultImageURL,
		Category:      "living-room",
		StockQuantity: stock,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	require.NoError(t, f.store.InsertProduct(context.Background(), &p))
	return p
}

func (f *fixture) user(t *testing.T, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		Name:     "Test " + role,
		Email:    email,
		Password: string(hash),
		Role:     role,
		Status:   models.UserActive,
		Address:  models.Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"},
	}
	require.NoError(t, f.store.InsertUser(context.Background(), &u))
	return u
}

func newID() primitive.ObjectID { return primitive.NewObjectID() }
