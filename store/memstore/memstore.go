// Package memstore is an in-process implementation of store.Store for tests.
// It mirrors the MongoDB repositories: unique (kind, user, product) lines,
// unique emails, and atomic single-document updates.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
)

type lineKey struct {
	kind      models.LineKind
	userID    primitive.ObjectID
	productID primitive.ObjectID
}

// Store holds every collection behind one mutex.
type Store struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
	lines    map[models.LineKind]map[primitive.ObjectID]models.LineItem
	lineIdx  map[lineKey]primitive.ObjectID
	orders   map[primitive.ObjectID]models.Order
	reviews  map[primitive.ObjectID]models.Review
	users    map[primitive.ObjectID]models.User
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		products: map[primitive.ObjectID]models.Product{},
		lines: map[models.LineKind]map[primitive.ObjectID]models.LineItem{
			models.KindCart:     {},
			models.KindWishlist: {},
		},
		lineIdx: map[lineKey]primitive.ObjectID{},
		orders:  map[primitive.ObjectID]models.Order{},
		reviews: map[primitive.ObjectID]models.Review{},
		users:   map[primitive.ObjectID]models.User{},
	}
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// Products

func (s *Store) InsertProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&p.ID)
	if _, ok := s.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) FindProduct(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindProducts(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id primitive.ObjectID, u store.ProductUpdate, now time.Time) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.StockQuantity != nil {
		p.StockQuantity = *u.StockQuantity
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
	p.UpdatedAt = now
	s.products[id] = p
	return p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.StockQuantity < qty {
		return store.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	s.products[id] = p
	return nil
}

func (s *Store) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.StockQuantity += qty
	s.products[id] = p
	return nil
}

func (s *Store) CountProducts(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.products)), nil
}

// Lines

func (s *Store) UpsertLine(_ context.Context, kind models.LineKind, userID, productID primitive.ObjectID, delta, limit int, now time.Time) (models.LineItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lineKey{kind, userID, productID}
	if id, ok := s.lineIdx[key]; ok {
		line := s.lines[kind][id]
		if kind == models.KindCart {
			line.Quantity = models.ClampQuantity(line.Quantity, delta, limit)
			line.UpdatedAt = now
		}
		s.lines[kind][id] = line
		return line, false, nil
	}

	line := models.LineItem{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ProductID: productID,
		AddedAt:   now,
		UpdatedAt: now,
	}
	if kind == models.KindCart {
		line.Quantity = models.ClampQuantity(0, delta, limit)
	}
	s.lines[kind][line.ID] = line
	s.lineIdx[key] = line.ID
	return line, true, nil
}

func (s *Store) FindLine(_ context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) (models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[kind][lineID]
	if !ok || line.UserID != userID {
		return models.LineItem{}, store.ErrNotFound
	}
	return line, nil
}

func (s *Store) FindLineByProduct(_ context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.lineIdx[lineKey{kind, userID, productID}]
	if !ok {
		return models.LineItem{}, store.ErrNotFound
	}
	return s.lines[kind][id], nil
}

func (s *Store) ListLines(_ context.Context, kind models.LineKind, userID primitive.ObjectID) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.LineItem{}
	for _, line := range s.lines[kind] {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, nil
}

func (s *Store) SetLineQuantity(_ context.Context, kind models.LineKind, userID, lineID primitive.ObjectID, qty int, now time.Time) (models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[kind][lineID]
	if !ok || line.UserID != userID {
		return models.LineItem{}, store.ErrNotFound
	}
	line.Quantity = qty
	line.UpdatedAt = now
	s.lines[kind][lineID] = line
	return line, nil
}

func (s *Store) removeLine(kind models.LineKind, line models.LineItem) {
	delete(s.lines[kind], line.ID)
	delete(s.lineIdx, lineKey{kind, line.UserID, line.ProductID})
}

func (s *Store) DeleteLine(_ context.Context, kind models.LineKind, userID, lineID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[kind][lineID]
	if !ok || line.UserID != userID {
		return store.ErrNotFound
	}
	s.removeLine(kind, line)
	return nil
}

func (s *Store) DeleteLineByProduct(_ context.Context, kind models.LineKind, userID, productID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.lineIdx[lineKey{kind, userID, productID}]
	if !ok {
		return false, nil
	}
	s.removeLine(kind, s.lines[kind][id])
	return true, nil
}

func (s *Store) DeleteLines(_ context.Context, kind models.LineKind, lineIDs []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range lineIDs {
		if line, ok := s.lines[kind][id]; ok {
			s.removeLine(kind, line)
		}
	}
	return nil
}

func (s *Store) ClearLines(_ context.Context, kind models.LineKind, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines[kind] {
		if line.UserID == userID {
			s.removeLine(kind, line)
		}
	}
	return nil
}

// Orders

func (s *Store) InsertOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&o.ID)
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (s *Store) FindOrder(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) listOrders(match func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range s.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListOrdersByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) ListOrders(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listOrders(func(o models.Order) bool { return status == "" || o.Status == status }), nil
}

func (s *Store) SetOrderStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, now time.Time) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return models.Order{}, store.ErrNotFound
	}
	o.Status = to
	o.UpdatedAt = now
	s.orders[id] = o
	return cloneOrder(o), nil
}

func (s *Store) CountOrders(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orders)), nil
}

func (s *Store) Revenue(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, o := range s.orders {
		if o.Status != models.StatusCancelled {
			total += o.Total
		}
	}
	return total, nil
}

// Reviews

func (s *Store) InsertReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&r.ID)
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) ListReviews(_ context.Context, f store.ReviewFilter) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Review{}
	for _, r := range s.reviews {
		if !f.ProductID.IsZero() && r.ProductID != f.ProductID {
			continue
		}
		if r.Rating < f.MinRating {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteReview(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) ReviewSummary(_ context.Context, productID primitive.ObjectID) (models.ReviewSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.ReviewSummary
	total := 0
	for _, r := range s.reviews {
		if r.ProductID == productID {
			sum.TotalCount++
			total += r.Rating
		}
	}
	if sum.TotalCount > 0 {
		sum.AverageRating = float64(total) / float64(sum.TotalCount)
	}
	return sum, nil
}

func (s *Store) CountReviews(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.reviews)), nil
}

// Users

func (s *Store) InsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	assignID(&u.ID)
	s.users[u.ID] = *u
	return nil
}

func (s *Store) FindUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, f store.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		u.Password = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, id primitive.ObjectID, upd store.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	s.users[id] = u
	return u, nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}
