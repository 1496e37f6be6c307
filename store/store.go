// Package store is the document store adapter the services are written
// against. Collections are gorm tables; every document is addressed by a
// string id. Writes made through the store are announced to subscribers
// after they commit, which is what the live cashier views are built on.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/siparist/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUnknownCollection  = errors.New("unknown collection")
)

// Document is implemented by every persisted model.
type Document interface {
	DocumentID() string
}

// Filter is a set of column equality conditions. A slice value matches any
// of its elements (IN).
type Filter map[string]interface{}

var prototypes = map[string]func() interface{}{
	models.CollectionMenu:         func() interface{} { return &models.MenuItem{} },
	models.CollectionOrders:       func() interface{} { return &models.Order{} },
	models.CollectionPasswords:    func() interface{} { return &models.TableSession{} },
	models.CollectionBillRequests: func() interface{} { return &models.BillRequest{} },
	models.CollectionArchives:     func() interface{} { return &models.ArchiveEntry{} },
	models.CollectionCashierUsers: func() interface{} { return &models.CashierUser{} },
	models.CollectionAdminUser:    func() interface{} { return &models.AdminUser{} },
}

func prototype(coll string) (interface{}, error) {
	newFn, ok := prototypes[coll]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, coll)
	}
	return newFn(), nil
}

type Store struct {
	db   *gorm.DB
	feed *feed
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, feed: newFeed()}
}

// DB exposes the underlying connection for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Get(ctx context.Context, coll, id string, out interface{}) error {
	if _, err := prototype(coll); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Table(coll).Where("id = ?", id).Take(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
	}
	return err
}

// Put writes doc as a whole, replacing any document with the same id.
func (s *Store) Put(ctx context.Context, coll string, doc Document) error {
	if err := putDoc(s.db.WithContext(ctx), coll, doc); err != nil {
		return err
	}
	s.feed.publish(coll)
	return nil
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, coll, id string, fields map[string]interface{}) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateDoc(tx, coll, id, fields)
	})
	if err != nil {
		return err
	}
	s.feed.publish(coll)
	return nil
}

// Add inserts doc and returns its id. Models fill an empty id in BeforeCreate.
func (s *Store) Add(ctx context.Context, coll string, doc Document) (string, error) {
	if _, err := prototype(coll); err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Table(coll).Create(doc).Error; err != nil {
		return "", err
	}
	s.feed.publish(coll)
	return doc.DocumentID(), nil
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	proto, err := prototype(coll)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(proto).Error; err != nil {
		return err
	}
	s.feed.publish(coll)
	return nil
}

// Query loads every document of coll matching f into out (pointer to slice).
func (s *Store) Query(ctx context.Context, coll string, f Filter, out interface{}) error {
	return s.QueryOrdered(ctx, coll, f, "", out)
}

func (s *Store) QueryOrdered(ctx context.Context, coll string, f Filter, order string, out interface{}) error {
	if _, err := prototype(coll); err != nil {
		return err
	}
	q := applyFilter(s.db.WithContext(ctx).Table(coll), f)
	if order != "" {
		q = q.Order(order)
	}
	return q.Find(out).Error
}

// Count returns the number of documents of coll matching f.
func (s *Store) Count(ctx context.Context, coll string, f Filter) (int64, error) {
	proto, err := prototype(coll)
	if err != nil {
		return 0, err
	}
	var n int64
	err = applyFilter(s.db.WithContext(ctx).Model(proto), f).Count(&n).Error
	return n, err
}

// Subscribe delivers a Change every time a write to coll commits. Bursts are
// coalesced: a slow reader sees at least one Change after the last write.
// The channel is closed when ctx is done.
func (s *Store) Subscribe(ctx context.Context, coll string) <-chan Change {
	id, ch := s.feed.subscribe(coll)
	go func() {
		<-ctx.Done()
		s.feed.unsubscribe(id)
	}()
	return ch
}

// Batch starts an atomic write set.
func (s *Store) Batch() *Batch {
	return &Batch{store: s}
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if len(f) == 0 {
		return q
	}
	return q.Where(map[string]interface{}(f))
}

func putDoc(tx *gorm.DB, coll string, doc Document) error {
	if _, err := prototype(coll); err != nil {
		return err
	}
	if doc.DocumentID() == "" {
		return fmt.Errorf("put %s: document id is required", coll)
	}
	// UpdateAll melewati kolom autoCreateTime, jadi semua kolom disebut eksplisit
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(doc); err != nil {
		return err
	}
	var cols []string
	for _, name := range stmt.Schema.DBNames {
		if f := stmt.Schema.LookUpField(name); f != nil && f.PrimaryKey {
			continue
		}
		cols = append(cols, name)
	}
	return tx.Table(coll).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(doc).Error
}

func updateDoc(tx *gorm.DB, coll, id string, fields map[string]interface{}) error {
	proto, err := prototype(coll)
	if err != nil {
		return err
	}
	var n int64
	if err := tx.Model(proto).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, coll, id)
	}
	return tx.Model(proto).Where("id = ?", id).Updates(fields).Error
}

// Change describes a committed write.
type Change struct {
	Collection string
	At         time.Time
}
