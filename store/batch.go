package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type batchOp struct {
	coll  string
	write bool
	run   func(tx *gorm.DB) error
}

// Batch collects writes that commit together or not at all. Preconditions
// added with Require are checked first, inside the same transaction.
type Batch struct {
	store  *Store
	checks []batchOp
	ops    []batchOp
}

// Require fails the whole batch with ErrPreconditionFailed unless the
// document coll/id exists and matches f.
func (b *Batch) Require(coll, id string, f Filter) *Batch {
	b.checks = append(b.checks, batchOp{coll: coll, run: func(tx *gorm.DB) error {
		proto, err := prototype(coll)
		if err != nil {
			return err
		}
		var n int64
		if err := applyFilter(tx.Model(proto).Where("id = ?", id), f).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrPreconditionFailed, coll, id)
		}
		return nil
	}})
	return b
}

func (b *Batch) Put(coll string, doc Document) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		return putDoc(tx, coll, doc)
	}})
	return b
}

func (b *Batch) Add(coll string, doc Document) *Batch {
	return b.AddLazy(coll, func() (Document, bool) { return doc, true })
}

// AddLazy builds the document when the batch executes, after earlier
// QueryInto steps have filled their targets. Returning false skips the insert.
func (b *Batch) AddLazy(coll string, build func() (Document, bool)) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		if _, err := prototype(coll); err != nil {
			return err
		}
		doc, ok := build()
		if !ok {
			return nil
		}
		return tx.Table(coll).Create(doc).Error
	}})
	return b
}

func (b *Batch) Update(coll, id string, fields map[string]interface{}) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		return updateDoc(tx, coll, id, fields)
	}})
	return b
}

// UpdateWhere merges fields into every document matching f. Zero matches is
// not an error.
func (b *Batch) UpdateWhere(coll string, f Filter, fields map[string]interface{}) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		proto, err := prototype(coll)
		if err != nil {
			return err
		}
		q := tx.Model(proto)
		if len(f) == 0 {
			q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
		}
		return applyFilter(q, f).Updates(fields).Error
	}})
	return b
}

func (b *Batch) Delete(coll, id string) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		proto, err := prototype(coll)
		if err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(proto).Error
	}})
	return b
}

// DeleteWhere removes every document matching f; an empty filter clears the
// collection.
func (b *Batch) DeleteWhere(coll string, f Filter) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, write: true, run: func(tx *gorm.DB) error {
		proto, err := prototype(coll)
		if err != nil {
			return err
		}
		q := tx
		if len(f) == 0 {
			q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
		}
		return applyFilter(q, f).Delete(proto).Error
	}})
	return b
}

// QueryInto reads inside the transaction, at its position in the batch.
func (b *Batch) QueryInto(coll string, f Filter, out interface{}) *Batch {
	b.ops = append(b.ops, batchOp{coll: coll, run: func(tx *gorm.DB) error {
		if _, err := prototype(coll); err != nil {
			return err
		}
		return applyFilter(tx.Table(coll), f).Find(out).Error
	}})
	return b
}

// Commit runs the batch in one transaction. On any error nothing is written.
func (b *Batch) Commit(ctx context.Context) error {
	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.checks {
			if err := op.run(tx); err != nil {
				return err
			}
		}
		for _, op := range b.ops {
			if err := op.run(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	var touched []string
	for _, op := range b.ops {
		if op.write {
			touched = append(touched, op.coll)
		}
	}
	b.store.feed.publish(touched...)
	return nil
}
